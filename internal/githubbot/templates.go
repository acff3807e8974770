package githubbot

const commitConvention = "*GitHub commit title convention*\n" +
	"`[TAG]: <summary>` with the summary in the imperative mood.\n\n" +
	"Tags:\n" +
	"• `Feat`: a new feature\n" +
	"• `Fix`: a bug fix\n" +
	"• `Refactor`: code change that neither fixes a bug nor adds a feature\n" +
	"• `Docs`: documentation only\n" +
	"• `Style`: formatting, no code change\n" +
	"• `Test`: adding or fixing tests\n" +
	"• `Chore`: build, tooling or dependency updates\n\n" +
	"Example: `Feat: add scrum time vote modal`"

const issueTemplate = "*Issue template*\n" +
	"```\n" +
	"## Description\n" +
	"What needs to be done and why.\n\n" +
	"## Tasks\n" +
	"- [ ] task 1\n" +
	"- [ ] task 2\n\n" +
	"## References\n" +
	"Links, screenshots, related issues.\n" +
	"```"

const pullRequestTemplate = "*Pull request template*\n" +
	"```\n" +
	"## Related issue\n" +
	"Closes #\n\n" +
	"## Changes\n" +
	"- \n\n" +
	"## How it was tested\n" +
	"- \n\n" +
	"## Screenshots (optional)\n" +
	"```"

const helpText = "*GitHub convention bot*\n" +
	"• `/conv-commit`: commit title convention\n" +
	"• `/conv-issue`: issue template\n" +
	"• `/conv-pr`: pull request template\n" +
	"• `/conv-help`: this list"
