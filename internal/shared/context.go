package shared

import "context"

type sessionKey struct{}

// ContextWithSession attaches the request session.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the request session, or nil outside the
// session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}

// CurrentStaffID returns the signed-in staff id of the request session.
func CurrentStaffID(ctx context.Context) (int64, bool) {
	return SessionFromContext(ctx).StaffID()
}
