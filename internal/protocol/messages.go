// Package protocol defines the versioned JSON wire protocol spoken over
// the bot and spectator WebSocket endpoints, and the codec that validates
// inbound frames into typed values.
package protocol

// Version is the protocol version stamped into every envelope.
const Version = 1

// Outbound frame types.
const (
	TypeWelcome  = "welcome"
	TypeLobby    = "lobby"
	TypeStart    = "start_hand"
	TypeAct      = "act"
	TypeEvent    = "event"
	TypeEndHand  = "end_hand"
	TypeSnapshot = "snapshot"
	TypeMatchEnd = "match_end"
	TypeError    = "error"

	TypeSpectatorWelcome  = "spectator/welcome"
	TypeSpectatorLobby    = "spectator/lobby"
	TypeSpectatorStart    = "spectator/start_hand"
	TypeSpectatorEvent    = "spectator/event"
	TypeSpectatorEndHand  = "spectator/end_hand"
	TypeSpectatorSnapshot = "spectator/snapshot"
	TypeSpectatorStatus   = "spectator/status"
)

// Inbound frame types.
const (
	TypeHello   = "hello"
	TypeAction  = "action"
	TypeControl = "control"
)

// Wire error codes.
const (
	CodeBadSchema     = "BAD_SCHEMA"
	CodeTeamTaken     = "TEAM_TAKEN"
	CodeTeamUnknown   = "TEAM_UNKNOWN"
	CodeTableFull     = "TABLE_FULL"
	CodeInvalidAction = "INVALID_ACTION"
	CodeOutOfTurn     = "OUT_OF_TURN"
	CodeActionTooLate = "ACTION_TOO_LATE"
)

// Operator commands.
const (
	CommandStartHand   = "START_HAND"
	CommandSkipAction  = "SKIP_ACTION"
	CommandForfeitSeat = "FORFEIT_SEAT"
)

// Roles a spectator-endpoint connection may declare.
const (
	RoleSpectator = "spectator"
	RoleOperator  = "operator"
)

// Spectator delivery modes.
const (
	ModeLive         = "live"
	ModePresentation = "presentation"
)

// Inbound is a decoded client frame.
type Inbound interface{ inbound() }

// Hello is the mandatory first frame on either endpoint. Bots send team
// (and join_code when seats are locked); spectators and operators send
// role and optionally a delivery mode.
type Hello struct {
	Team     string `json:"team,omitempty"`
	JoinCode string `json:"join_code,omitempty"`
	Role     string `json:"role,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

func (Hello) inbound() {}

// Action is a bot's answer to an act prompt. Amount is required for
// RAISE_TO and must be an integer.
type Action struct {
	HandID string `json:"hand_id"`
	Action string `json:"action"`
	Amount *int   `json:"amount,omitempty"`
}

func (Action) inbound() {}

// Control is an operator command.
type Control struct {
	Command string `json:"command"`
	Seat    *int   `json:"seat,omitempty"`
}

func (Control) inbound() {}

// Outbound payloads. The codec flattens these into the envelope next to
// type/v/ts, which is the layout bots parse.

// ConfigInfo echoes the fixed table parameters inside welcome frames.
type ConfigInfo struct {
	Variant       string `json:"variant"`
	Seats         int    `json:"seats"`
	StartingStack int    `json:"starting_stack"`
	SB            int    `json:"sb"`
	BB            int    `json:"bb"`
	MoveTimeMS    int    `json:"move_time_ms"`
}

// Welcome confirms a claimed seat.
type Welcome struct {
	TableID string     `json:"table_id"`
	Seat    int        `json:"seat"`
	Team    string     `json:"team"`
	Config  ConfigInfo `json:"config"`
}

// LobbyPlayer is one row of the lobby roster.
type LobbyPlayer struct {
	Seat      int    `json:"seat"`
	Team      string `json:"team"`
	Connected bool   `json:"connected"`
	Stack     int    `json:"stack"`
}

// Lobby is broadcast whenever seat membership or connectivity changes.
type Lobby struct {
	Players []LobbyPlayer `json:"players"`
}

// SeatStack pairs a seat with a chip count.
type SeatStack struct {
	Seat  int `json:"seat"`
	Stack int `json:"stack"`
}

// StartHand announces a new hand, publishing the shuffle seed.
type StartHand struct {
	HandID string      `json:"hand_id"`
	Seed   uint64      `json:"seed"`
	Button int         `json:"button"`
	Stacks []SeatStack `json:"stacks"`
}

// ActYou is the private half of an act prompt.
type ActYou struct {
	Hole      []string `json:"hole"`
	Stack     int      `json:"stack"`
	Committed int      `json:"committed"`
	ToCall    int      `json:"to_call"`
	TimeMS    int      `json:"time_ms"`
}

// ActTable is the static table block of an act prompt.
type ActTable struct {
	SB     int `json:"sb"`
	BB     int `json:"bb"`
	Seats  int `json:"seats"`
	Button int `json:"button"`
}

// ActPlayer is the public view of one seat inside prompts and snapshots.
type ActPlayer struct {
	Seat      int  `json:"seat"`
	Stack     int  `json:"stack"`
	HasFolded bool `json:"has_folded"`
	Committed int  `json:"committed"`
}

// Act is the private prompt sent only to the acting seat.
type Act struct {
	HandID     string      `json:"hand_id"`
	Seat       int         `json:"seat"`
	Phase      string      `json:"phase"`
	Pot        int         `json:"pot"`
	You        ActYou      `json:"you"`
	Table      ActTable    `json:"table"`
	Players    []ActPlayer `json:"players"`
	Community  []string    `json:"community"`
	Legal      []string    `json:"legal"`
	CallAmount *int        `json:"call_amount"`
	MinRaiseTo *int        `json:"min_raise_to"`
	MaxRaiseTo *int        `json:"max_raise_to"`
}

// EndHand closes a hand with the post-payout stacks.
type EndHand struct {
	HandID string      `json:"hand_id"`
	Stacks []SeatStack `json:"stacks"`
}

// SnapshotYou is the private half of a reconnect snapshot.
type SnapshotYou struct {
	Seat   int      `json:"seat"`
	Hole   []string `json:"hole"`
	Stack  int      `json:"stack"`
	ToCall int      `json:"to_call"`
}

// Snapshot carries enough state for a reconnecting bot to resume,
// including the remaining decision clock when it is that bot's turn.
type Snapshot struct {
	AtHandID        string      `json:"at_hand_id"`
	Phase           string      `json:"phase"`
	You             SnapshotYou `json:"you"`
	Players         []ActPlayer `json:"players"`
	Community       []string    `json:"community"`
	NextActor       *int        `json:"next_actor"`
	TimeMSRemaining int         `json:"time_ms_remaining"`
	Legal           []string    `json:"legal,omitempty"`
	CallAmount      *int        `json:"call_amount,omitempty"`
	MinRaiseTo      *int        `json:"min_raise_to,omitempty"`
	MaxRaiseTo      *int        `json:"max_raise_to,omitempty"`
}

// WinnerInfo names the match winner.
type WinnerInfo struct {
	Seat int    `json:"seat"`
	Team string `json:"team"`
}

// FinalStack is one row of the final standings.
type FinalStack struct {
	Seat  int    `json:"seat"`
	Team  string `json:"team"`
	Stack int    `json:"stack"`
}

// MatchEnd declares the match over. Winner is null when the match aborts.
type MatchEnd struct {
	Winner      *WinnerInfo  `json:"winner"`
	FinalStacks []FinalStack `json:"final_stacks"`
}

// ErrorMsg reports a protocol or rule violation.
type ErrorMsg struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Status is the operator advisory describing whether a hand can start.
type Status struct {
	InHand              bool `json:"in_hand"`
	AwaitingManualStart bool `json:"awaiting_manual_start"`
	ManualStartArmed    bool `json:"manual_start_armed"`
	PlayersReady        int  `json:"players_ready"`
	CanStart            bool `json:"can_start"`
}

// SpectatorSeat is the omniscient per-seat view for spectators.
type SpectatorSeat struct {
	Seat      int      `json:"seat"`
	Team      string   `json:"team"`
	Stack     int      `json:"stack"`
	Committed int      `json:"committed"`
	Hole      []string `json:"hole"`
	HasFolded bool     `json:"has_folded"`
	Connected bool     `json:"connected"`
	IsButton  bool     `json:"is_button"`
}

// SpectatorState is the full-table view pushed after every event burst.
type SpectatorState struct {
	HandID          string          `json:"hand_id"`
	TableID         string          `json:"table_id"`
	Pot             int             `json:"pot"`
	Phase           string          `json:"phase"`
	Community       []string        `json:"community"`
	Seats           []SpectatorSeat `json:"seats"`
	NextActor       *int            `json:"next_actor"`
	TimeRemainingMS *int            `json:"time_remaining_ms"`
	SB              int             `json:"sb"`
	BB              int             `json:"bb"`
}

// SpectatorWelcome confirms a spectator or operator connection.
type SpectatorWelcome struct {
	TableID string     `json:"table_id"`
	Role    string     `json:"role"`
	Mode    string     `json:"mode"`
	Config  ConfigInfo `json:"config"`
}
