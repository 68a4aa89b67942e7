package domain

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Occupancy struct {
	MaxAdults   int `json:"maxAdults"`
	MaxChildren int `json:"maxChildren"`
}

// Hotel mirrors the upstream hotel payload. Rooms is attached once by the
// aggregator and never changed afterwards.
type Hotel struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Address1   string  `json:"address1"`
	Address2   string  `json:"address2,omitempty"`
	StarRating string  `json:"starRating"`
	Images     []Image `json:"images"`
	Rooms      []Room  `json:"rooms"`
}

type Room struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	BedConfiguration string    `json:"bedConfiguration"`
	LongDescription  string    `json:"longDescription"`
	Images           []Image   `json:"images"`
	Occupancy        Occupancy `json:"occupancy"`
}

// RoomRates is the body of the per-hotel room-rate endpoint; only rooms are used.
type RoomRates struct {
	Rooms []Room `json:"rooms"`
}
