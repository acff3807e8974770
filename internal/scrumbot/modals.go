package scrumbot

import (
	"strings"

	"github.com/slack-go/slack"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
)

const (
	createVoteCallbackID = "create_vote_modal"
	addOptionCallbackID  = "add_option_modal"

	optionsBlockID   = "vote_options"
	optionsActionID  = "options"
	endTimeBlockID   = "end_time"
	endTimeActionID  = "end_time_input"
	allowAddBlockID  = "allow_add"
	allowAddActionID = "allow_add_action"
	anonBlockID      = "anonymous"
	anonActionID     = "anonymous_action"

	newOptionBlockID  = "new_option"
	newOptionActionID = "new_option_input"

	// Slack's cap for plain_text_input.
	maxInputLength = 3000
)

// createVoteModal asks for the vote settings. The target channel travels in
// private_metadata.
func createVoteModal(channelID string) slack.ModalViewRequest {
	optionsInput := slack.NewPlainTextInputBlockElement(plain("Comma separated, e.g. 09:00, 10:00"), optionsActionID)
	optionsInput.MaxLength = maxInputLength
	options := slack.NewInputBlock(optionsBlockID, plain("Options"), nil, optionsInput)
	options.Optional = true

	endTime := slack.NewInputBlock(endTimeBlockID,
		plain("Voting ends at"), nil,
		slack.NewPlainTextInputBlockElement(plain("24-hour time, e.g. 18:00"), endTimeActionID))

	allowAdd := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, "*Allow adding options*", false, false), nil,
		slack.NewAccessory(slack.NewCheckboxGroupsBlockElement(allowAddActionID,
			slack.NewOptionBlockObject("yes", plain("Allow adding options"), nil))))
	allowAdd.BlockID = allowAddBlockID

	anonymous := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, "*Ballot* (check for anonymous)", false, false), nil,
		slack.NewAccessory(slack.NewCheckboxGroupsBlockElement(anonActionID,
			slack.NewOptionBlockObject("anonymous", plain("Anonymous"), nil))))
	anonymous.BlockID = anonBlockID

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      createVoteCallbackID,
		PrivateMetadata: channelID,
		Title:           plain("Scrum time vote"),
		Submit:          plain("Create"),
		Close:           plain("Cancel"),
		Blocks:          slack.Blocks{BlockSet: []slack.Block{options, endTime, allowAdd, anonymous}},
	}
}

func addOptionModal(channelID string) slack.ModalViewRequest {
	element := slack.NewPlainTextInputBlockElement(nil, newOptionActionID)
	element.MaxLength = vote.MaxOptionLength
	input := slack.NewInputBlock(newOptionBlockID, plain("New option"), nil, element)

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      addOptionCallbackID,
		PrivateMetadata: channelID,
		Title:           plain("Add option"),
		Submit:          plain("Add"),
		Close:           plain("Cancel"),
		Blocks:          slack.Blocks{BlockSet: []slack.Block{input}},
	}
}

// createVoteForm is the parsed create_vote_modal submission.
type createVoteForm struct {
	Options   string
	EndTime   string
	AllowAdd  bool
	Anonymous bool
}

func parseCreateVote(view slack.View) createVoteForm {
	return createVoteForm{
		Options:   strings.TrimSpace(stateValue(view, optionsBlockID, optionsActionID).Value),
		EndTime:   strings.TrimSpace(stateValue(view, endTimeBlockID, endTimeActionID).Value),
		AllowAdd:  len(stateValue(view, allowAddBlockID, allowAddActionID).SelectedOptions) > 0,
		Anonymous: len(stateValue(view, anonBlockID, anonActionID).SelectedOptions) > 0,
	}
}

func parseNewOption(view slack.View) string {
	return stateValue(view, newOptionBlockID, newOptionActionID).Value
}

func stateValue(view slack.View, blockID, actionID string) slack.BlockAction {
	if view.State == nil {
		return slack.BlockAction{}
	}
	return view.State.Values[blockID][actionID]
}
