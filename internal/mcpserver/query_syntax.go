package mcpserver

// QuerySyntax documents the search query language for MCP clients.
const QuerySyntax = `# jot Search Syntax

A query is a list of whitespace-separated tokens. Date tokens filter by the
note's creation date; every other token is part of a substring match against
the title and body.

## Date tokens

| Token | Meaning |
|---|---|
| ` + "`y:2024`" + `, ` + "`year:2024`" + ` | notes created in 2024 |
| ` + "`m:03/24`" + `, ` + "`month:03/2024`" + ` | notes created in March 2024 |

- Prefixes are case-insensitive (` + "`Y:2024`" + ` works).
- Years must be between 1900 and 2100. Two-digit years mean 20YY.
- Months must be 1 to 12.
- A token that does not parse is searched as plain text.
- If several date tokens are given, the last valid one wins.

## Text

- Remaining tokens are joined with single spaces and matched as one
  substring, case-insensitively, anywhere in the title or body.
- ` + "`%`" + ` and ` + "`_`" + ` match literally.
- An empty query lists the newest notes.

## Results

Newest first by creation date. Each result carries the id, title, the first
100 characters of the body, the creation time, and a word count.

## Examples

- ` + "`alpha`" + ` notes mentioning alpha
- ` + "`y:2023 meeting`" + ` notes from 2023 mentioning meeting
- ` + "`m:12/24`" + ` everything from December 2024
`
