package transport

import "time"

// zeroTime clears a previously set read deadline (the zero Time disables
// any deadline on the connection, per net.Conn.SetReadDeadline).
var zeroTime time.Time
