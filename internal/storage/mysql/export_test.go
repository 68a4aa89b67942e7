package mysql

// SetAfterRoomsRead installs f between the room and hotel reads of ListHotels.
func SetAfterRoomsRead(r *Repo, f func()) { r.afterRoomsRead = f }
