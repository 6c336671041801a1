package model

// City is a venue city. Its Timezone is an IANA zone name and decides the
// local wall clock of every event held there.
//
// Fields:
//
//	ID       – primary key identifier.
//	Name     – display name, unique.
//	Timezone – IANA zone name, defaults to Europe/Moscow.
type City struct {
	ID       uint64 `json:"id"`       // cities.id
	Name     string `json:"name"`     // cities.name
	Timezone string `json:"timezone"` // cities.timezone
}
