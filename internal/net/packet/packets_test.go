package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripper interface {
	Packet
	Encoder
}

// decodeAs reads an encoded frame back into a fresh packet of the same type.
func decodeAs(t *testing.T, frame []byte, dst Packet, dynamic bool) {
	t.Helper()
	r := NewReader(frame, dynamic)
	if ext, ok := dst.(Extended); ok {
		require.Equal(t, ext.SubOpcode(), r.U16())
	}
	require.True(t, dst.Read(r), "read failed: %v", r.Err())
	assert.Equal(t, 0, r.Remaining(), "trailing bytes")
}

func TestFixedPacketRoundTrip(t *testing.T) {
	reg := NewRegistry(0, nil)
	tests := []struct {
		name string
		in   roundTripper
		out  Packet
	}{
		{"login confirm", &LoginConfirm{Serial: 0x1234, Body: 0x190, X: 1000, Y: 2000, Z: -5, Direction: 3, MapWidth: 7168, MapHeight: 4096}, &LoginConfirm{}},
		{"delete object", &DeleteObject{Serial: 0x40000001}, &DeleteObject{}},
		{"draw player", &DrawPlayer{Serial: 7, Body: 0x191, Hue: 0x83EA, Flags: 0x02, X: 100, Y: 200, Direction: 0x84, Z: 10}, &DrawPlayer{}},
		{"movement deny", &MovementDeny{Seq: 3, X: 1000, Y: 2000, Direction: 2, Z: 5}, &MovementDeny{}},
		{"movement ack", &MovementAck{Seq: 9, Notoriety: 1}, &MovementAck{}},
		{"add to container", &AddToContainer{Serial: 0x40000010, Art: 0x0EED, Amount: 50, X: 44, Y: 65, Grid: 1, Container: 0x40000002, Hue: 0x35}, &AddToContainer{}},
		{"worn item", &WornItem{Serial: 0x40000020, Art: 0x1F03, Layer: 0x16, Mobile: 7, Hue: 0x21}, &WornItem{}},
		{"weather", &Weather{Type: 1, Count: 40, Temperature: 10}, &Weather{}},
		{"graphical effect", &GraphicalEffect{Type: EffectMoving, Source: 1, Target: 2, Art: 0x36D4, SourceX: 10, SourceY: 11, SourceZ: -1, TargetX: 12, TargetY: 13, TargetZ: 2, Speed: 5, Duration: 10, FixedDirection: true}, &GraphicalEffect{}},
		{"ping", &Ping{Seq: 42}, &Ping{}},
		{"mobile moving", &MobileMoving{Serial: 9, Body: 0x190, X: 5, Y: 6, Z: -3, Direction: 4, Hue: 0x100, Flags: 0x40, Notoriety: 3}, &MobileMoving{}},
		{"relay", &Relay{Address: [4]byte{127, 0, 0, 1}, Port: 2593, Key: 0xCAFEBABE}, &Relay{}},
		{"login denied", &LoginDenied{Reason: 3}, &LoginDenied{}},
		{"login complete", &LoginComplete{}, &LoginComplete{}},
		{"move request", &MoveRequest{Direction: 0x82, Seq: 255, FastWalkKey: 0xDEADBEEF}, &MoveRequest{}},
		{"stat query", &StatSkillQuery{Type: QueryStats, Serial: 0x1234}, &StatSkillQuery{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.in.Encode()
			n, dynamic := reg.FrameLength(tt.in.Opcode())
			if tt.in.Opcode() < 0x10 || tt.in.Opcode() == C_OPCODE_STAT_SKILL_QUERY {
				// client packets are not in the server length table
				n, dynamic = len(frame), false
			}
			require.False(t, dynamic)
			require.Len(t, frame, n)
			decodeAs(t, frame, tt.out, false)
			assert.Equal(t, tt.in, tt.out)
		})
	}
}

func TestDynamicPacketRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   roundTripper
		out  Packet
	}{
		{"world item plain", &WorldItem{Serial: 0x40000001, Art: 0x0EED, Amount: 1, X: 10, Y: 20, Z: 5}, &WorldItem{}},
		{"world item all flags", &WorldItem{Serial: 0x40000002, Art: 0x0EED, Amount: 500, Increment: 1, X: 10, Y: 20, Direction: 2, Z: -7, Hue: 0x480, Flags: 0x20}, &WorldItem{}},
		{"ascii speech", &AsciiSpeech{Serial: 5, Body: 0x190, Type: SpeechRegular, Hue: 0x3B2, Font: 3, Name: "Dupre", Text: "Hail!"}, &AsciiSpeech{}},
		{"unicode speech", &UnicodeSpeech{Serial: 5, Body: 0x190, Type: SpeechYell, Hue: 0x3B2, Font: 3, Language: "ENU", Name: "Iolo", Text: "Vas Flam!"}, &UnicodeSpeech{}},
		{"speech request", &SpeechRequest{Type: SpeechEmote, Hue: 0x3B2, Font: 3, Language: "ENU", Text: "waves"}, &SpeechRequest{}},
		{"server list", &ServerList{Flags: 0x5D, Shards: []ShardEntry{{Index: 0, Name: "Britannia", PercentFull: 10, Timezone: -5, Address: [4]byte{10, 0, 0, 1}}}}, &ServerList{}},
		{"draw object", &DrawObject{
			MobileMoving: MobileMoving{Serial: 9, Body: 0x190, X: 5, Y: 6, Z: 1, Direction: 4, Hue: 0x100, Notoriety: 1},
			Equipment:    []Equipment{{Serial: 0x40000100, Art: 0x1F03, Layer: 0x16, Hue: 0x21}, {Serial: 0x40000101, Art: 0x13B9, Layer: 0x01}},
		}, &DrawObject{}},
		{"close gump", &CloseGump{TypeID: 0x1234, ButtonID: 1}, &CloseGump{}},
		{"map change", &MapChange{MapID: 2}, &MapChange{}},
		{"unicode prompt", &UnicodePrompt{PlayerSerial: 7, PromptSerial: 99}, &UnicodePrompt{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.in.Encode()
			require.GreaterOrEqual(t, len(frame), 3)
			assert.Equal(t, len(frame), int(frame[1])<<8|int(frame[2]))
			decodeAs(t, frame, tt.out, true)
			assert.Equal(t, tt.in, tt.out)
		})
	}
}

func TestCharacterListSkipsCityTable(t *testing.T) {
	in := &CharacterList{Characters: []string{"Avatar", "", "Shamino"}}
	out := &CharacterList{}
	r := NewReader(in.Encode(), true)
	require.True(t, out.Read(r))
	assert.Equal(t, in.Characters, out.Characters)
}

func TestLoginDeniedReasonText(t *testing.T) {
	assert.Equal(t, "Incorrect name or password.", (&LoginDenied{Reason: 0}).ReasonText())
	assert.Equal(t, "Login denied.", (&LoginDenied{Reason: 0xFE}).ReasonText())
}

func TestClientPacketSizes(t *testing.T) {
	assert.Len(t, (&LoginSeed{Seed: 1}).Encode(), 21)
	assert.Len(t, (&AccountLogin{Name: "a", Password: "b"}).Encode(), 62)
	assert.Len(t, (&SelectServer{}).Encode(), 3)
	assert.Len(t, (&GameLogin{Key: 1, Name: "a", Password: "b"}).Encode(), 65)
	assert.Len(t, (&CharacterSelect{Name: "Avatar"}).Encode(), 73)

	resp := (&PromptResponse{PlayerSerial: 1, PromptSerial: 2, Language: "ENU", Text: "hi"}).Encode()
	assert.Equal(t, len(resp), int(resp[1])<<8|int(resp[2]))
	cancel := (&PromptResponse{PlayerSerial: 1, PromptSerial: 2, Cancel: true}).Encode()
	assert.Len(t, cancel, 3+4+4+4+4)
}
