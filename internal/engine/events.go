package engine

// Event is one public fact produced by an engine transition. Events are
// broadcast in production order; the structs carry the wire field layout
// directly so the protocol layer only wraps them in an envelope.
type Event interface {
	// Ev returns the wire event discriminator, e.g. "POST_BLINDS".
	Ev() string
}

// PostBlindsEvent announces the forced bets opening a hand.
type PostBlindsEvent struct {
	SBSeat int `json:"sb_seat"`
	BBSeat int `json:"bb_seat"`
	SB     int `json:"sb"`
	BB     int `json:"bb"`
}

func (PostBlindsEvent) Ev() string { return "POST_BLINDS" }

// BetEvent announces a raise; Amount is the incremental chips moved.
type BetEvent struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
	To     int `json:"to"`
}

func (BetEvent) Ev() string { return "BET" }

// CallEvent announces a call of Amount chips.
type CallEvent struct {
	Seat   int  `json:"seat"`
	Amount int  `json:"amount"`
	AllIn  bool `json:"all_in,omitempty"`
}

func (CallEvent) Ev() string { return "CALL" }

// CheckEvent announces a check.
type CheckEvent struct {
	Seat int `json:"seat"`
}

func (CheckEvent) Ev() string { return "CHECK" }

// FoldEvent announces a fold.
type FoldEvent struct {
	Seat int `json:"seat"`
}

func (FoldEvent) Ev() string { return "FOLD" }

// FlopEvent reveals the three flop cards.
type FlopEvent struct {
	Cards []string `json:"cards"`
}

func (FlopEvent) Ev() string { return "FLOP" }

// TurnEvent reveals the turn card.
type TurnEvent struct {
	Card string `json:"card"`
}

func (TurnEvent) Ev() string { return "TURN" }

// RiverEvent reveals the river card.
type RiverEvent struct {
	Card string `json:"card"`
}

func (RiverEvent) Ev() string { return "RIVER" }

// ShowdownEvent reveals one live seat's hole cards and best rank.
type ShowdownEvent struct {
	Seat  int      `json:"seat"`
	Hand  []string `json:"hand"`
	Board []string `json:"board"`
	Rank  string   `json:"rank"`
}

func (ShowdownEvent) Ev() string { return "SHOWDOWN" }

// PotAwardEvent credits Amount chips to Seat from one pot.
type PotAwardEvent struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
	Pot    int `json:"pot"`
}

func (PotAwardEvent) Ev() string { return "POT_AWARD" }

// EliminatedEvent announces a seat busting out of the match.
type EliminatedEvent struct {
	Seat int `json:"seat"`
}

func (EliminatedEvent) Ev() string { return "ELIMINATED" }
