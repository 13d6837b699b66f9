package domain

// Identity is the authenticated user's public record, as resolved by the
// identity store. Sensitive fields (password hash, refresh secret) are
// stripped before an Identity ever reaches the relay core.
type Identity struct {
	ID       string
	Username string
	Avatar   string
}
