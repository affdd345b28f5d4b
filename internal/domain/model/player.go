// Package model contains domain models passed between layers.
package model

import "fmt"

// PlayerKey identifies a character. Matching is exact on both fields.
type PlayerKey struct {
	Realm string
	Name  string
}

// String renders the key as name-realm, the way the game shows it.
func (k PlayerKey) String() string {
	return fmt.Sprintf("%s-%s", k.Name, k.Realm)
}

// Valid reports whether both parts are set.
func (k PlayerKey) Valid() bool {
	return k.Realm != "" && k.Name != ""
}

// Scores holds the seasonal Mythic+ scores written by enrichment.
type Scores struct {
	All    float64 `json:"rio_all"`
	DPS    float64 `json:"rio_dps"`
	Healer float64 `json:"rio_healer"`
	Tank   float64 `json:"rio_tank"`
	Spec0  float64 `json:"spec_0"`
	Spec1  float64 `json:"spec_1"`
	Spec2  float64 `json:"spec_2"`
	Spec3  float64 `json:"spec_3"`
}

// IsZero reports whether every score is zero.
func (s Scores) IsZero() bool {
	return s == Scores{}
}

// PlayerRecord is one row of the snapshot.
type PlayerRecord struct {
	Realm      string  `json:"realm"`
	Guild      *string `json:"guild"`
	Name       string  `json:"name"`
	Class      string  `json:"class"`
	ActiveSpec string  `json:"active_spec_name"`
	Scores

	// Region the profile is looked up in. Empty means the configured default.
	Region string `json:"-"`
}

// Key returns the identity of the record.
func (r *PlayerRecord) Key() PlayerKey {
	return PlayerKey{Realm: r.Realm, Name: r.Name}
}

// Identity carries the roster-owned fields of a player.
type Identity struct {
	Key        PlayerKey
	Region     string
	Guild      *string
	Class      string
	ActiveSpec string
}

// Member is one roster entry as returned by the guild endpoint.
type Member struct {
	Name       string
	Class      string
	ActiveSpec string
}

// Roster is a decoded guild profile.
type Roster struct {
	Guild   string
	Realm   string
	Region  string
	Members []Member
}

// Identities converts the roster members into identity upserts.
func (r Roster) Identities() []Identity {
	guild := r.Guild
	out := make([]Identity, 0, len(r.Members))
	for _, m := range r.Members {
		out = append(out, Identity{
			Key:        PlayerKey{Realm: r.Realm, Name: m.Name},
			Region:     r.Region,
			Guild:      &guild,
			Class:      m.Class,
			ActiveSpec: m.ActiveSpec,
		})
	}
	return out
}
