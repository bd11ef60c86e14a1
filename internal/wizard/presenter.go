package wizard

import "context"

// Choice is one labeled button offered with a prompt. ID is the opaque
// callback payload ("action" or "action:argument") echoed back on press.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Presenter renders wizard steps to the user. Implemented by the chat
// transport; the wizards never talk to a connection directly.
type Presenter interface {
	// Prompt renders text with a fixed set of labeled actions.
	Prompt(ctx context.Context, userID int64, text string, choices []Choice) error
	// PromptFreeform renders text expecting a raw text reply. Optional
	// choices (typically a cancel button) may accompany it.
	PromptFreeform(ctx context.Context, userID int64, text string, choices ...Choice) error
	// Say renders a plain message with no expected reply.
	Say(ctx context.Context, userID int64, text string) error
}

// Callback actions emitted by wizard prompts.
const (
	ActionSelectDoctor    = "select_doctor"
	ActionSelectProcedure = "select_procedure"
	ActionSelectDate      = "select_date"
	ActionSelectTime      = "select_time"
	ActionConfirm         = "confirm"
	ActionCancel          = "cancel"

	ActionEditSelectDoctor    = "edit_select_doctor"
	ActionEditSelectProcedure = "edit_select_procedure"
	ActionEditSelectDate      = "edit_select_date"
	ActionEditSelectTime      = "edit_select_time"
)

// CancelChoice is the universal abort button.
var CancelChoice = Choice{ID: ActionCancel, Label: "❌ Отмена"}
