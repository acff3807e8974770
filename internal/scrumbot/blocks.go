package scrumbot

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
)

const (
	// BallotBlockID prefixes every actions block holding ballot buttons. The
	// button value carries the option label.
	BallotBlockID   = "vote_ballots"
	ControlsBlockID = "vote_controls"

	ActionAddOption = "add_option"
	ActionEndVote   = "end_vote_now"

	// Slack rejects actions blocks with more than 25 elements.
	maxActionElements = 25
)

// RenderVote builds the live vote message. It is a pure function of v.
func RenderVote(v vote.Vote) []slack.Block {
	rows := v.Tally()

	blocks := []slack.Block{header(v.Question)}
	if len(rows) > 0 {
		blocks = append(blocks, tallySection(v, rows))
	}

	for start := 0; start < len(rows); start += maxActionElements {
		end := start + maxActionElements
		if end > len(rows) {
			end = len(rows)
		}
		blockID := BallotBlockID
		if start > 0 {
			blockID = fmt.Sprintf("%s:%d", BallotBlockID, start/maxActionElements)
		}
		buttons := make([]slack.BlockElement, 0, end-start)
		for i := start; i < end; i++ {
			option := rows[i].Option
			buttons = append(buttons, slack.NewButtonBlockElement(
				fmt.Sprintf("cast_%d", i), option, plain(option)))
		}
		blocks = append(blocks, slack.NewActionBlock(blockID, buttons...))
	}

	addBtn := slack.NewButtonBlockElement(ActionAddOption, "add", plain("Add option"))
	endBtn := slack.NewButtonBlockElement(ActionEndVote, "end", plain("End now")).
		WithStyle(slack.StyleDanger)
	blocks = append(blocks, slack.NewActionBlock(ControlsBlockID, addBtn, endBtn))
	return blocks
}

// RenderClosedVote replaces the live message once the vote has ended.
func RenderClosedVote(o vote.Outcome) []slack.Block {
	v := o.Vote
	blocks := []slack.Block{header(v.Question)}
	if rows := v.Tally(); len(rows) > 0 {
		blocks = append(blocks, tallySection(v, rows))
	}
	closed := "Voting has ended."
	if o.Trigger == vote.TriggerManual {
		closed = "Voting was ended early."
	}
	blocks = append(blocks, slack.NewContextBlock("vote_closed",
		slack.NewTextBlockObject(slack.MarkdownType, closed, false, false)))
	return blocks
}

// RenderReplacedVote freezes the message of a vote that a newer vote in the
// same channel replaced. Its tally is shown as it stood.
func RenderReplacedVote(v vote.Vote) []slack.Block {
	blocks := []slack.Block{header(v.Question)}
	if rows := v.Tally(); len(rows) > 0 {
		blocks = append(blocks, tallySection(v, rows))
	}
	blocks = append(blocks, slack.NewContextBlock("vote_closed",
		slack.NewTextBlockObject(slack.MarkdownType, "This vote was replaced by a newer one.", false, false)))
	return blocks
}

// RenderResults is the announcement posted when a vote ends.
func RenderResults(o vote.Outcome) string {
	if len(o.Results) == 0 {
		return "The vote has ended! No options were added."
	}
	lines := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		lines = append(lines, fmt.Sprintf("*%s*: %s", r.Option, votes(r.Votes)))
	}
	return "The vote has ended! Here are the results:\n\n" + strings.Join(lines, "\n")
}

func tallySection(v vote.Vote, rows []vote.OptionTally) slack.Block {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		line := fmt.Sprintf("*%s*: %s", row.Option, votes(row.Count))
		if !v.Anonymous && row.Count > 0 {
			mentions := make([]string, 0, len(row.Voters))
			for _, voter := range row.Voters {
				mentions = append(mentions, "<@"+voter+">")
			}
			line += " (" + strings.Join(mentions, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(lines, "\n"), false, false),
		nil, nil)
}

func header(text string) slack.Block {
	return slack.NewHeaderBlock(plain(text))
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

func votes(n int) string {
	if n == 1 {
		return "1 vote"
	}
	return fmt.Sprintf("%d votes", n)
}
