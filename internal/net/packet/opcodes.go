package packet

// Server → client opcodes handled by this client.
const (
	S_OPCODE_WORLD_ITEM        byte = 0x1A
	S_OPCODE_LOGIN_CONFIRM     byte = 0x1B
	S_OPCODE_ASCII_SPEECH      byte = 0x1C
	S_OPCODE_DELETE_OBJECT     byte = 0x1D
	S_OPCODE_DRAW_PLAYER       byte = 0x20
	S_OPCODE_MOVEMENT_DENY     byte = 0x21
	S_OPCODE_MOVEMENT_ACK      byte = 0x22
	S_OPCODE_ADD_TO_CONTAINER  byte = 0x25
	S_OPCODE_WORN_ITEM         byte = 0x2E
	S_OPCODE_LOGIN_COMPLETE    byte = 0x55
	S_OPCODE_WEATHER           byte = 0x65
	S_OPCODE_GRAPHICAL_EFFECT  byte = 0x70
	S_OPCODE_MOBILE_MOVING     byte = 0x77
	S_OPCODE_DRAW_OBJECT       byte = 0x78
	S_OPCODE_LOGIN_DENIED      byte = 0x82
	S_OPCODE_RELAY             byte = 0x8C
	S_OPCODE_SERVER_LIST       byte = 0xA8
	S_OPCODE_CHARACTER_LIST    byte = 0xA9
	S_OPCODE_UNICODE_SPEECH    byte = 0xAE
	S_OPCODE_UNICODE_PROMPT    byte = 0xC2
)

// Client → server opcodes.
const (
	C_OPCODE_MOVE_REQUEST     byte = 0x02
	C_OPCODE_STAT_SKILL_QUERY byte = 0x34
	C_OPCODE_CHARACTER_SELECT byte = 0x5D
	C_OPCODE_ACCOUNT_LOGIN    byte = 0x80
	C_OPCODE_GAME_LOGIN       byte = 0x91
	C_OPCODE_SELECT_SERVER    byte = 0xA0
	C_OPCODE_UNICODE_SPEECH   byte = 0xAD
	C_OPCODE_PROMPT_RESPONSE  byte = 0xC2
	C_OPCODE_LOGIN_SEED       byte = 0xEF
)

// Opcodes used in both directions.
const (
	OPCODE_PING     byte = 0x73
	OPCODE_EXTENDED byte = 0xBF
)

// Extended (0xBF) sub-opcodes.
const (
	EXT_CLOSE_GUMP uint16 = 0x0004
	EXT_MAP_CHANGE uint16 = 0x0008
)

const (
	lengthUnknown = -1
	lengthDynamic = 0
)

// serverLengths is the declared frame length of every server → client opcode
// the protocol defines, whether or not a handler exists for it. Unknown
// opcodes still need their size to be skipped without desynchronizing.
var serverLengths = func() [256]int {
	var t [256]int
	for i := range t {
		t[i] = lengthUnknown
	}
	fixed := map[byte]int{
		0x0B: 7, 0x1B: 37, 0x1D: 5, 0x20: 19, 0x21: 8, 0x22: 3, 0x23: 26,
		0x24: 9, 0x25: 21, 0x27: 2, 0x2C: 2, 0x2D: 17, 0x2E: 15, 0x2F: 10,
		0x4E: 6, 0x4F: 2, 0x54: 12, 0x55: 1, 0x56: 11, 0x5B: 4, 0x65: 4,
		0x6C: 19, 0x6D: 3, 0x6E: 14, 0x70: 28, 0x72: 5, 0x73: 2, 0x76: 16,
		0x77: 17, 0x82: 2, 0x88: 66, 0x8C: 11, 0x90: 19, 0x93: 99, 0x95: 9,
		0x97: 2, 0xA1: 9, 0xA2: 9, 0xA3: 9, 0xAA: 5, 0xAF: 13, 0xB9: 5,
		0xBA: 6, 0xBC: 3, 0xC0: 36, 0xC7: 49, 0xC8: 2, 0xD1: 2, 0xDC: 9,
	}
	for op, n := range fixed {
		t[op] = n
	}
	dynamic := []byte{
		0x11, 0x17, 0x1A, 0x1C, 0x3A, 0x3C, 0x6F, 0x74, 0x78, 0x7C, 0x89,
		0x98, 0x99, 0x9E, 0xA5, 0xA6, 0xA8, 0xA9, 0xAB, 0xAE, 0xB0, 0xB8,
		0xBD, 0xBF, 0xC1, 0xC2, 0xCC, 0xD6, 0xDD, 0xDF, 0xF0,
	}
	for _, op := range dynamic {
		t[op] = lengthDynamic
	}
	return t
}()
