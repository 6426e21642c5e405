package packet

// Login-phase packets: seed, account login, shard list, relay, character list.

// StatQueryPattern prefixes several client requests that carry a serial.
const StatQueryPattern uint32 = 0xEDEDEDED

// LoginSeed (0xEF) opens every connection with the client version.
type LoginSeed struct {
	Seed      uint32
	Major     uint32
	Minor     uint32
	Revision  uint32
	Prototype uint32
}

func (p *LoginSeed) Opcode() byte { return C_OPCODE_LOGIN_SEED }

func (p *LoginSeed) Encode() []byte {
	w := NewWriter(C_OPCODE_LOGIN_SEED, 21)
	w.U32(p.Seed)
	w.U32(p.Major)
	w.U32(p.Minor)
	w.U32(p.Revision)
	w.U32(p.Prototype)
	return w.Bytes()
}

// AccountLogin (0x80).
type AccountLogin struct {
	Name     string
	Password string
	NextKey  byte
}

func (p *AccountLogin) Opcode() byte { return C_OPCODE_ACCOUNT_LOGIN }

func (p *AccountLogin) Encode() []byte {
	w := NewWriter(C_OPCODE_ACCOUNT_LOGIN, 62)
	w.FixedASCII(p.Name, 30)
	w.FixedASCII(p.Password, 30)
	w.U8(p.NextKey)
	return w.Bytes()
}

// LoginDenied (0x82).
type LoginDenied struct {
	Reason byte
}

func (p *LoginDenied) Opcode() byte { return S_OPCODE_LOGIN_DENIED }

func (p *LoginDenied) Read(r *Reader) bool {
	p.Reason = r.U8()
	return r.OK()
}

func (p *LoginDenied) Encode() []byte {
	w := NewWriter(S_OPCODE_LOGIN_DENIED, 2)
	w.U8(p.Reason)
	return w.Bytes()
}

// ReasonText maps the deny code to a message for the system log.
func (p *LoginDenied) ReasonText() string {
	switch p.Reason {
	case 0x00:
		return "Incorrect name or password."
	case 0x01:
		return "Someone is already using this account."
	case 0x02:
		return "Your account has been blocked."
	case 0x03:
		return "Your account credentials are invalid."
	case 0x04:
		return "Communication problem."
	case 0x05:
		return "The IGR concurrency limit has been met."
	case 0x06:
		return "The IGR time limit has been met."
	case 0x07:
		return "General IGR authentication failure."
	default:
		return "Login denied."
	}
}

// ShardEntry is one row of the server list.
type ShardEntry struct {
	Index       uint16
	Name        string
	PercentFull byte
	Timezone    int8
	Address     [4]byte
}

// ServerList (0xA8).
type ServerList struct {
	Flags  byte
	Shards []ShardEntry
}

func (p *ServerList) Opcode() byte { return S_OPCODE_SERVER_LIST }

func (p *ServerList) Read(r *Reader) bool {
	p.Flags = r.U8()
	n := int(r.U16())
	for i := 0; i < n && r.OK(); i++ {
		var s ShardEntry
		s.Index = r.U16()
		s.Name = r.FixedASCII(32)
		s.PercentFull = r.U8()
		s.Timezone = r.I8()
		// address is sent least significant octet first
		ip := r.Bytes(4)
		if len(ip) == 4 {
			s.Address = [4]byte{ip[3], ip[2], ip[1], ip[0]}
		}
		p.Shards = append(p.Shards, s)
	}
	return r.OK()
}

func (p *ServerList) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_SERVER_LIST)
	w.U8(p.Flags)
	w.U16(uint16(len(p.Shards)))
	for _, s := range p.Shards {
		w.U16(s.Index)
		w.FixedASCII(s.Name, 32)
		w.U8(s.PercentFull)
		w.I8(s.Timezone)
		w.Raw([]byte{s.Address[3], s.Address[2], s.Address[1], s.Address[0]})
	}
	return w.Bytes()
}

// SelectServer (0xA0).
type SelectServer struct {
	Index uint16
}

func (p *SelectServer) Opcode() byte { return C_OPCODE_SELECT_SERVER }

func (p *SelectServer) Encode() []byte {
	w := NewWriter(C_OPCODE_SELECT_SERVER, 3)
	w.U16(p.Index)
	return w.Bytes()
}

// Relay (0x8C) hands the client over to the game server.
type Relay struct {
	Address [4]byte
	Port    uint16
	Key     uint32
}

func (p *Relay) Opcode() byte { return S_OPCODE_RELAY }

func (p *Relay) Read(r *Reader) bool {
	copy(p.Address[:], r.Bytes(4))
	p.Port = r.U16()
	p.Key = r.U32()
	return r.OK()
}

func (p *Relay) Encode() []byte {
	w := NewWriter(S_OPCODE_RELAY, 11)
	w.Raw(p.Address[:])
	w.U16(p.Port)
	w.U32(p.Key)
	return w.Bytes()
}

// GameLogin (0x91) is the first packet on the relayed connection.
type GameLogin struct {
	Key      uint32
	Name     string
	Password string
}

func (p *GameLogin) Opcode() byte { return C_OPCODE_GAME_LOGIN }

func (p *GameLogin) Encode() []byte {
	w := NewWriter(C_OPCODE_GAME_LOGIN, 65)
	w.U32(p.Key)
	w.FixedASCII(p.Name, 30)
	w.FixedASCII(p.Password, 30)
	return w.Bytes()
}

// CharacterList (0xA9). Only the character slots are decoded; the starting
// city table that follows is not used by the client.
type CharacterList struct {
	Characters []string // empty string = free slot
}

func (p *CharacterList) Opcode() byte { return S_OPCODE_CHARACTER_LIST }

func (p *CharacterList) Read(r *Reader) bool {
	n := int(r.U8())
	for i := 0; i < n && r.OK(); i++ {
		name := r.FixedASCII(30)
		r.Skip(30) // password, always blank
		p.Characters = append(p.Characters, name)
	}
	return r.OK()
}

func (p *CharacterList) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_CHARACTER_LIST)
	w.U8(byte(len(p.Characters)))
	for _, c := range p.Characters {
		w.FixedASCII(c, 30)
		w.Zero(30)
	}
	w.U8(0) // no starting cities
	w.U32(0)
	return w.Bytes()
}

// CharacterSelect (0x5D).
type CharacterSelect struct {
	Name     string
	Slot     uint32
	ClientIP uint32
}

func (p *CharacterSelect) Opcode() byte { return C_OPCODE_CHARACTER_SELECT }

func (p *CharacterSelect) Encode() []byte {
	w := NewWriter(C_OPCODE_CHARACTER_SELECT, 73)
	w.U32(StatQueryPattern)
	w.FixedASCII(p.Name, 30)
	w.Zero(2)
	w.U32(0x1F) // client flags
	w.Zero(24)
	w.U32(p.Slot)
	w.U32(p.ClientIP)
	return w.Bytes()
}

// LoginConfirm (0x1B) places the player in the world.
type LoginConfirm struct {
	Serial    uint32
	Body      uint16
	X, Y      uint16
	Z         int16
	Direction byte
	MapWidth  uint16
	MapHeight uint16
}

func (p *LoginConfirm) Opcode() byte { return S_OPCODE_LOGIN_CONFIRM }

func (p *LoginConfirm) Read(r *Reader) bool {
	p.Serial = r.U32()
	r.Skip(4)
	p.Body = r.U16()
	p.X = r.U16()
	p.Y = r.U16()
	p.Z = r.I16()
	p.Direction = r.U8()
	r.Skip(9)
	p.MapWidth = r.U16()
	p.MapHeight = r.U16()
	r.Skip(6)
	return r.OK()
}

func (p *LoginConfirm) Encode() []byte {
	w := NewWriter(S_OPCODE_LOGIN_CONFIRM, 37)
	w.U32(p.Serial)
	w.U32(0)
	w.U16(p.Body)
	w.U16(p.X)
	w.U16(p.Y)
	w.I16(p.Z)
	w.U8(p.Direction)
	w.U8(0)
	w.U32(0xFFFFFFFF)
	w.Zero(4)
	w.U16(p.MapWidth)
	w.U16(p.MapHeight)
	w.Zero(6)
	return w.Bytes()
}

// LoginComplete (0x55) has no payload.
type LoginComplete struct{}

func (p *LoginComplete) Opcode() byte        { return S_OPCODE_LOGIN_COMPLETE }
func (p *LoginComplete) Read(r *Reader) bool { return r.OK() }
func (p *LoginComplete) Encode() []byte {
	return NewWriter(S_OPCODE_LOGIN_COMPLETE, 1).Bytes()
}

// Ping (0x73) is echoed back by the client.
type Ping struct {
	Seq byte
}

func (p *Ping) Opcode() byte { return OPCODE_PING }

func (p *Ping) Read(r *Reader) bool {
	p.Seq = r.U8()
	return r.OK()
}

func (p *Ping) Encode() []byte {
	w := NewWriter(OPCODE_PING, 2)
	w.U8(p.Seq)
	return w.Bytes()
}
