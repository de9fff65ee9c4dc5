package account

import "time"

// Account is a registered identity as exposed over the API. Password carries
// the credential the caller submitted; stored passwords are only ever hashes.
type Account struct {
	ID       int    `json:"accountId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Candidate is an account submitted for registration or login. ID is a
// pointer so that a client-supplied accountId, even 0, can be rejected.
type Candidate struct {
	ID       *int   `json:"accountId,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Record is a row of the accounts table.
type Record struct {
	ID           int       `db:"account_id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
