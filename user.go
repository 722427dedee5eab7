package walletd

// User identifies the authenticated caller of the HTTP API.
type User struct {
	ID    string `json:"id"`
	Token string `json:"-"`
}
