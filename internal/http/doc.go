// Package http provides the JSON transport for the lab reservation API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"user_name","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content.
//   - POST /users: registers an account (the only unauthenticated mutation).
//   - GET /rooms?building=&os=: searches the room catalog.
//   - POST /rooms: adds a room with its computer grid (admin only).
//   - PUT /rooms/{building}/{number}/os: changes a room's operating system
//     (admin only).
//   - GET /rooms/{building}/{number}/computers?day=: the occupancy grid for
//     one room and day; occupant names are included only for admins.
//   - GET /rooms/{building}/{number}/bookings?day=: occupied slots for one
//     room and day.
//   - POST /bookings: books a computer. Omitting "computer_id" books any
//     free computer for the room, day and timeslot.
//   - DELETE /bookings/{id}: cancels the caller's booking.
//   - GET /bookings: lists the caller's bookings across all rooms.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
