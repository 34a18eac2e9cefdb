package studiotimer

type CommandKind string

const (
	CmdDigit           CommandKind = "digit"
	CmdBackspace       CommandKind = "backspace"
	CmdSelectDirection CommandKind = "selectDirection"
	CmdCommit          CommandKind = "commit"
	CmdPause           CommandKind = "pause"
	CmdToggle          CommandKind = "toggle"
	CmdReset           CommandKind = "reset"
	CmdSetLabel        CommandKind = "setLabel"
	CmdSetInput        CommandKind = "setInput"
	CmdTick            CommandKind = "tick"
	CmdFinish          CommandKind = "finish"
)

// Command is one canonical instruction for a single timer. Only the fields
// relevant to Kind are read.
type Command struct {
	Kind      CommandKind
	Digit     int
	Direction Direction
	LabelID   string
	Input     string

	// HasInput marks a commit that carries the client's view of the keypad
	// entry, used in place of the stored digits.
	HasInput bool
}

func Digit(d int) Command                 { return Command{Kind: CmdDigit, Digit: d} }
func Backspace() Command                  { return Command{Kind: CmdBackspace} }
func SelectDirection(d Direction) Command { return Command{Kind: CmdSelectDirection, Direction: d} }
func Commit() Command                     { return Command{Kind: CmdCommit} }
func Pause() Command                      { return Command{Kind: CmdPause} }
func Toggle() Command                     { return Command{Kind: CmdToggle} }
func Reset() Command                      { return Command{Kind: CmdReset} }
func SetLabel(id string) Command          { return Command{Kind: CmdSetLabel, LabelID: id} }
func SetInput(digits string) Command      { return Command{Kind: CmdSetInput, Input: digits} }
func Tick() Command                       { return Command{Kind: CmdTick} }
func Finish() Command                     { return Command{Kind: CmdFinish} }

// CommitWith is a commit carrying the control surface's own keypad entry
// and direction. Both are ignored unless the timer is in PhaseInput.
func CommitWith(input string, dir Direction) Command {
	return Command{Kind: CmdCommit, Input: input, HasInput: true, Direction: dir}
}

// CommitMode is a commit that overrides only the direction.
func CommitMode(dir Direction) Command {
	return Command{Kind: CmdCommit, Direction: dir}
}
