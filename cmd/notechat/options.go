package main

// Options holds the command line. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config    string `short:"c" long:"config" description:"config file (YAML or JSON)" value-name:"PATH"`
	MaxTokens int    `long:"max-tokens" description:"cap on reply length in tokens" value-name:"N"`
	Recover   bool   `long:"recover" description:"remove a placeholder left by an interrupted run"`
	Pending   bool   `long:"pending" description:"list notes with a call still marked in flight"`

	Args struct {
		File  string `positional-arg-name:"file" description:"note to continue"`
		Model string `positional-arg-name:"model" description:"model name, optionally prefixed with openai: or anthropic:"`
	} `positional-args:"yes"`
}
