package packet

// Speech, effects, weather, prompts and the 0xBF sub-packets.

// Speech types shared by the ascii and unicode speech packets.
const (
	SpeechRegular   byte = 0x00
	SpeechBroadcast byte = 0x01
	SpeechEmote     byte = 0x02
	SpeechSystem    byte = 0x06
	SpeechWhisper   byte = 0x08
	SpeechYell      byte = 0x09
)

// AsciiSpeech (0x1C).
type AsciiSpeech struct {
	Serial uint32
	Body   uint16
	Type   byte
	Hue    uint16
	Font   uint16
	Name   string
	Text   string
}

func (p *AsciiSpeech) Opcode() byte { return S_OPCODE_ASCII_SPEECH }

func (p *AsciiSpeech) Read(r *Reader) bool {
	p.Serial = r.U32()
	p.Body = r.U16()
	p.Type = r.U8()
	p.Hue = r.U16()
	p.Font = r.U16()
	p.Name = r.FixedASCII(30)
	p.Text = r.ASCIIZ()
	return r.OK()
}

func (p *AsciiSpeech) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_ASCII_SPEECH)
	w.U32(p.Serial)
	w.U16(p.Body)
	w.U8(p.Type)
	w.U16(p.Hue)
	w.U16(p.Font)
	w.FixedASCII(p.Name, 30)
	w.ASCIIZ(p.Text)
	return w.Bytes()
}

// UnicodeSpeech (0xAE).
type UnicodeSpeech struct {
	Serial   uint32
	Body     uint16
	Type     byte
	Hue      uint16
	Font     uint16
	Language string
	Name     string
	Text     string
}

func (p *UnicodeSpeech) Opcode() byte { return S_OPCODE_UNICODE_SPEECH }

func (p *UnicodeSpeech) Read(r *Reader) bool {
	p.Serial = r.U32()
	p.Body = r.U16()
	p.Type = r.U8()
	p.Hue = r.U16()
	p.Font = r.U16()
	p.Language = r.FixedASCII(4)
	p.Name = r.FixedASCII(30)
	p.Text = r.UnicodeZ()
	return r.OK()
}

func (p *UnicodeSpeech) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_UNICODE_SPEECH)
	w.U32(p.Serial)
	w.U16(p.Body)
	w.U8(p.Type)
	w.U16(p.Hue)
	w.U16(p.Font)
	w.FixedASCII(p.Language, 4)
	w.FixedASCII(p.Name, 30)
	w.UnicodeZ(p.Text)
	return w.Bytes()
}

// SpeechRequest (0xAD) is the client's unicode speech.
type SpeechRequest struct {
	Type     byte
	Hue      uint16
	Font     uint16
	Language string
	Text     string
}

func (p *SpeechRequest) Opcode() byte { return C_OPCODE_UNICODE_SPEECH }

func (p *SpeechRequest) Read(r *Reader) bool {
	p.Type = r.U8()
	p.Hue = r.U16()
	p.Font = r.U16()
	p.Language = r.FixedASCII(4)
	p.Text = r.UnicodeZ()
	return r.OK()
}

func (p *SpeechRequest) Encode() []byte {
	w := NewDynamicWriter(C_OPCODE_UNICODE_SPEECH)
	w.U8(p.Type)
	w.U16(p.Hue)
	w.U16(p.Font)
	w.FixedASCII(p.Language, 4)
	w.UnicodeZ(p.Text)
	return w.Bytes()
}

// Weather (0x65).
type Weather struct {
	Type        byte
	Count       byte
	Temperature byte
}

func (p *Weather) Opcode() byte { return S_OPCODE_WEATHER }

func (p *Weather) Read(r *Reader) bool {
	p.Type = r.U8()
	p.Count = r.U8()
	p.Temperature = r.U8()
	return r.OK()
}

func (p *Weather) Encode() []byte {
	w := NewWriter(S_OPCODE_WEATHER, 4)
	w.U8(p.Type)
	w.U8(p.Count)
	w.U8(p.Temperature)
	return w.Bytes()
}

// Graphical effect types.
const (
	EffectMoving     byte = 0x00
	EffectLightning  byte = 0x01
	EffectAtLocation byte = 0x02
	EffectOnSource   byte = 0x03
)

// GraphicalEffect (0x70).
type GraphicalEffect struct {
	Type           byte
	Source         uint32
	Target         uint32
	Art            uint16
	SourceX        uint16
	SourceY        uint16
	SourceZ        int8
	TargetX        uint16
	TargetY        uint16
	TargetZ        int8
	Speed          byte
	Duration       byte
	FixedDirection bool
	Explode        bool
}

func (p *GraphicalEffect) Opcode() byte { return S_OPCODE_GRAPHICAL_EFFECT }

func (p *GraphicalEffect) Read(r *Reader) bool {
	p.Type = r.U8()
	p.Source = r.U32()
	p.Target = r.U32()
	p.Art = r.U16()
	p.SourceX = r.U16()
	p.SourceY = r.U16()
	p.SourceZ = r.I8()
	p.TargetX = r.U16()
	p.TargetY = r.U16()
	p.TargetZ = r.I8()
	p.Speed = r.U8()
	p.Duration = r.U8()
	r.Skip(2)
	p.FixedDirection = r.U8() != 0
	p.Explode = r.U8() != 0
	return r.OK()
}

func (p *GraphicalEffect) Encode() []byte {
	w := NewWriter(S_OPCODE_GRAPHICAL_EFFECT, 28)
	w.U8(p.Type)
	w.U32(p.Source)
	w.U32(p.Target)
	w.U16(p.Art)
	w.U16(p.SourceX)
	w.U16(p.SourceY)
	w.I8(p.SourceZ)
	w.U16(p.TargetX)
	w.U16(p.TargetY)
	w.I8(p.TargetZ)
	w.U8(p.Speed)
	w.U8(p.Duration)
	w.Zero(2)
	w.U8(boolByte(p.FixedDirection))
	w.U8(boolByte(p.Explode))
	return w.Bytes()
}

// UnicodePrompt (0xC2) asks the player for a line of text.
type UnicodePrompt struct {
	PlayerSerial uint32
	PromptSerial uint32
}

func (p *UnicodePrompt) Opcode() byte { return S_OPCODE_UNICODE_PROMPT }

func (p *UnicodePrompt) Read(r *Reader) bool {
	p.PlayerSerial = r.U32()
	p.PromptSerial = r.U32()
	r.Skip(10) // type, language, empty text
	return r.OK()
}

func (p *UnicodePrompt) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_UNICODE_PROMPT)
	w.U32(p.PlayerSerial)
	w.U32(p.PromptSerial)
	w.Zero(10)
	return w.Bytes()
}

// PromptResponse (0xC2, client side). Cancel sends an empty reply.
type PromptResponse struct {
	PlayerSerial uint32
	PromptSerial uint32
	Cancel       bool
	Language     string
	Text         string
}

func (p *PromptResponse) Opcode() byte { return C_OPCODE_PROMPT_RESPONSE }

func (p *PromptResponse) Encode() []byte {
	w := NewDynamicWriter(C_OPCODE_PROMPT_RESPONSE)
	w.U32(p.PlayerSerial)
	w.U32(p.PromptSerial)
	if p.Cancel {
		w.U32(0)
	} else {
		w.U32(1)
	}
	w.FixedASCII(p.Language, 4)
	if !p.Cancel {
		w.UnicodeZ(p.Text)
	}
	return w.Bytes()
}

// CloseGump (0xBF/0x04).
type CloseGump struct {
	TypeID   uint32
	ButtonID uint32
}

func (p *CloseGump) Opcode() byte      { return OPCODE_EXTENDED }
func (p *CloseGump) SubOpcode() uint16 { return EXT_CLOSE_GUMP }

func (p *CloseGump) Read(r *Reader) bool {
	p.TypeID = r.U32()
	p.ButtonID = r.U32()
	return r.OK()
}

func (p *CloseGump) Encode() []byte {
	w := NewDynamicWriter(OPCODE_EXTENDED)
	w.U16(EXT_CLOSE_GUMP)
	w.U32(p.TypeID)
	w.U32(p.ButtonID)
	return w.Bytes()
}

// MapChange (0xBF/0x08).
type MapChange struct {
	MapID byte
}

func (p *MapChange) Opcode() byte      { return OPCODE_EXTENDED }
func (p *MapChange) SubOpcode() uint16 { return EXT_MAP_CHANGE }

func (p *MapChange) Read(r *Reader) bool {
	p.MapID = r.U8()
	return r.OK()
}

func (p *MapChange) Encode() []byte {
	w := NewDynamicWriter(OPCODE_EXTENDED)
	w.U16(EXT_MAP_CHANGE)
	w.U8(p.MapID)
	return w.Bytes()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
