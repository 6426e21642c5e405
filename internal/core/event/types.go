package event

// Client events for UI collaborators, the journal and the profile store.

type SystemMessage struct {
	Text string
}

type SpeechHeard struct {
	Serial uint32
	Name   string
	Text   string
	Type   byte
}

// PromptRequested asks the UI for a line of text; the reply goes out as a
// prompt response with the same serials.
type PromptRequested struct {
	PlayerSerial uint32
	PromptSerial uint32
}

type GumpClosed struct {
	TypeID   uint32
	ButtonID uint32
}

type WeatherChanged struct {
	Type        byte
	Count       byte
	Temperature byte
}

type EnteredWorld struct {
	Serial    uint32
	Account   string
	Shard     string
	Character string
}

type Disconnected struct {
	Reason string
}
