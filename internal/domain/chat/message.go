package chat

// Turn is one conversational prompt about an idea.
type Turn struct {
	Context        string
	IdeaName       string
	IdeaContent    string
	Section        string
	SectionContent string
	Prompt         string
	EditingActive  bool
}

// Reply is the model answer. UpdatedContent is only set when editing.
type Reply struct {
	Message        string
	UpdatedContent *string
}
