package report

import "time"

// ProfessionTotal is the winning profession with its summed paid-job total.
type ProfessionTotal struct {
	Profession string
	TotalCents int64
}

// ClientTotal is one row of the best-clients ranking.
type ClientTotal struct {
	AccountID      string
	Name           string
	TotalPaidCents int64
}

// Window is an inclusive [Start, End] range over job payment dates.
type Window struct {
	Start time.Time
	End   time.Time
}
