package shared

import "time"

// DefaultStartingBalance is what a bidder holds the first time they are seen
const DefaultStartingBalance int64 = 5000

// User represents a bidder. Balance is net worth: it is never escrowed at bid time
// and only moves when a lot the user won is settled.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Online    bool      `json:"online"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// CanAfford reports whether the user may bid amount
func (u *User) CanAfford(amount int64) bool {
	return amount <= u.Balance
}

// Credit adds delta to the balance; delta may be negative
func (u *User) Credit(delta int64) {
	u.Balance += delta
}

// DefaultUserName derives a display name from the last four characters of an id
func DefaultUserName(id string) string {
	if len(id) <= 4 {
		return "User " + id
	}
	return "User " + id[len(id)-4:]
}
