package auth

import "context"

type subjectKey struct{}

// WithSubject stamps the authenticated account name onto the context so
// downstream handlers can attribute saved sessions to an owner.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the account name set by the JWT middleware,
// or "" for unauthenticated requests.
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
