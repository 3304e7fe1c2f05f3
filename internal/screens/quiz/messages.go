package quiz

import "time"

// timerTickMsg is sent every second to refresh the countdown and notice
// an expiry that finalized the cycle in the background.
type timerTickMsg time.Time
