package auth

// Decision tells the navigation layer where to send the user after an auth
// state change.
type Decision int

const (
	// DecisionNone means stay put. Always returned while loading so the
	// bootstrap phase cannot cause a redirect flicker.
	DecisionNone Decision = iota
	// DecisionToApp sends an authenticated user out of the sign-in/sign-up
	// route group into the main app.
	DecisionToApp
	// DecisionToSignIn sends an anonymous user back to the sign-in screen.
	DecisionToSignIn
)

// Redirect evaluates the routing rule for the current auth state.
// inAuthGroup reports whether the user is currently on an unauthenticated
// route (sign-in / sign-up).
func (m *Manager) Redirect(inAuthGroup bool) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading {
		return DecisionNone
	}
	if m.user != nil && inAuthGroup {
		return DecisionToApp
	}
	if m.user == nil && !inAuthGroup {
		return DecisionToSignIn
	}
	return DecisionNone
}
