package model

// TargetKind tells which fetch stage a target belongs to.
type TargetKind string

const (
	TargetGuild  TargetKind = "guild"
	TargetPlayer TargetKind = "player"
)

// Target is the unit of work a remote call was made for.
type Target struct {
	Kind   TargetKind
	Guild  GuildIdentifier
	Player PlayerKey
}

// GuildTarget wraps a guild identifier.
func GuildTarget(g GuildIdentifier) Target {
	return Target{Kind: TargetGuild, Guild: g}
}

// PlayerTarget wraps a player key.
func PlayerTarget(k PlayerKey) Target {
	return Target{Kind: TargetPlayer, Player: k}
}

// ID is unique per target and stable across a run.
func (t Target) ID() string {
	if t.Kind == TargetGuild {
		return "guild:" + t.Guild.Key()
	}
	return "player:" + t.Player.Realm + "/" + t.Player.Name
}

func (t Target) String() string {
	if t.Kind == TargetGuild {
		return "guild " + t.Guild.String()
	}
	return "player " + t.Player.String()
}

// OutcomeKind tags a FetchOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeTerminal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Outcome is the result of one remote call: Success(Value),
// RetryableFailure(Target, Err) or TerminalFailure(Target, Err).
type Outcome[T any] struct {
	Kind   OutcomeKind
	Value  T
	Target Target
	Err    error
}

// Success builds a successful outcome.
func Success[T any](target Target, v T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSuccess, Value: v, Target: target}
}

// Retryable builds an outcome that should go to the retry queue.
func Retryable[T any](target Target, err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeRetryable, Target: target, Err: err}
}

// Terminal builds an outcome that must not be retried.
func Terminal[T any](target Target, err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeTerminal, Target: target, Err: err}
}

// OK reports whether the outcome carries a value.
func (o Outcome[T]) OK() bool {
	return o.Kind == OutcomeSuccess
}
