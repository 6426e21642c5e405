package packet

// Object and movement packets.

// Flag bits carried in the serial/art/x/y fields of WorldItem.
const (
	worldItemHasAmount    = 0x80000000
	worldItemHasIncrement = 0x8000
	worldItemHasDirection = 0x8000
	worldItemHasHue       = 0x8000
	worldItemHasFlags     = 0x4000
)

// WorldItem (0x1A) shows a dynamic item on the ground.
type WorldItem struct {
	Serial    uint32
	Art       uint16
	Amount    uint16
	Increment byte
	X, Y      uint16
	Direction byte
	Z         int8
	Hue       uint16
	Flags     byte
}

func (p *WorldItem) Opcode() byte { return S_OPCODE_WORLD_ITEM }

func (p *WorldItem) Read(r *Reader) bool {
	serial := r.U32()
	p.Serial = serial &^ worldItemHasAmount
	p.Amount = 1
	art := r.U16()
	p.Art = art &^ worldItemHasIncrement
	if serial&worldItemHasAmount != 0 {
		p.Amount = r.U16()
	}
	if art&worldItemHasIncrement != 0 {
		p.Increment = r.U8()
	}
	x := r.U16()
	p.X = x &^ worldItemHasDirection
	y := r.U16()
	p.Y = y & 0x3FFF
	if x&worldItemHasDirection != 0 {
		p.Direction = r.U8()
	}
	p.Z = r.I8()
	if y&worldItemHasHue != 0 {
		p.Hue = r.U16()
	}
	if y&worldItemHasFlags != 0 {
		p.Flags = r.U8()
	}
	return r.OK()
}

func (p *WorldItem) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_WORLD_ITEM)
	serial := p.Serial
	if p.Amount > 1 {
		serial |= worldItemHasAmount
	}
	w.U32(serial)
	art := p.Art
	if p.Increment != 0 {
		art |= worldItemHasIncrement
	}
	w.U16(art)
	if p.Amount > 1 {
		w.U16(p.Amount)
	}
	if p.Increment != 0 {
		w.U8(p.Increment)
	}
	x, y := p.X, p.Y&0x3FFF
	if p.Direction != 0 {
		x |= worldItemHasDirection
	}
	if p.Hue != 0 {
		y |= worldItemHasHue
	}
	if p.Flags != 0 {
		y |= worldItemHasFlags
	}
	w.U16(x)
	w.U16(y)
	if p.Direction != 0 {
		w.U8(p.Direction)
	}
	w.I8(p.Z)
	if p.Hue != 0 {
		w.U16(p.Hue)
	}
	if p.Flags != 0 {
		w.U8(p.Flags)
	}
	return w.Bytes()
}

// DeleteObject (0x1D).
type DeleteObject struct {
	Serial uint32
}

func (p *DeleteObject) Opcode() byte { return S_OPCODE_DELETE_OBJECT }

func (p *DeleteObject) Read(r *Reader) bool {
	p.Serial = r.U32()
	return r.OK()
}

func (p *DeleteObject) Encode() []byte {
	w := NewWriter(S_OPCODE_DELETE_OBJECT, 5)
	w.U32(p.Serial)
	return w.Bytes()
}

// DrawPlayer (0x20) teleports the player mobile.
type DrawPlayer struct {
	Serial    uint32
	Body      uint16
	Hue       uint16
	Flags     byte
	X, Y      uint16
	Direction byte
	Z         int8
}

func (p *DrawPlayer) Opcode() byte { return S_OPCODE_DRAW_PLAYER }

func (p *DrawPlayer) Read(r *Reader) bool {
	p.Serial = r.U32()
	p.Body = r.U16()
	r.Skip(1)
	p.Hue = r.U16()
	p.Flags = r.U8()
	p.X = r.U16()
	p.Y = r.U16()
	r.Skip(2)
	p.Direction = r.U8()
	p.Z = r.I8()
	return r.OK()
}

func (p *DrawPlayer) Encode() []byte {
	w := NewWriter(S_OPCODE_DRAW_PLAYER, 19)
	w.U32(p.Serial)
	w.U16(p.Body)
	w.U8(0)
	w.U16(p.Hue)
	w.U8(p.Flags)
	w.U16(p.X)
	w.U16(p.Y)
	w.Zero(2)
	w.U8(p.Direction)
	w.I8(p.Z)
	return w.Bytes()
}

// MovementDeny (0x21) rejects a walk request and resets the player.
type MovementDeny struct {
	Seq       byte
	X, Y      uint16
	Direction byte
	Z         int8
}

func (p *MovementDeny) Opcode() byte { return S_OPCODE_MOVEMENT_DENY }

func (p *MovementDeny) Read(r *Reader) bool {
	p.Seq = r.U8()
	p.X = r.U16()
	p.Y = r.U16()
	p.Direction = r.U8()
	p.Z = r.I8()
	return r.OK()
}

func (p *MovementDeny) Encode() []byte {
	w := NewWriter(S_OPCODE_MOVEMENT_DENY, 8)
	w.U8(p.Seq)
	w.U16(p.X)
	w.U16(p.Y)
	w.U8(p.Direction)
	w.I8(p.Z)
	return w.Bytes()
}

// MovementAck (0x22).
type MovementAck struct {
	Seq       byte
	Notoriety byte
}

func (p *MovementAck) Opcode() byte { return S_OPCODE_MOVEMENT_ACK }

func (p *MovementAck) Read(r *Reader) bool {
	p.Seq = r.U8()
	p.Notoriety = r.U8()
	return r.OK()
}

func (p *MovementAck) Encode() []byte {
	w := NewWriter(S_OPCODE_MOVEMENT_ACK, 3)
	w.U8(p.Seq)
	w.U8(p.Notoriety)
	return w.Bytes()
}

// MoveRequest (0x02).
type MoveRequest struct {
	Direction   byte
	Seq         byte
	FastWalkKey uint32
}

func (p *MoveRequest) Opcode() byte { return C_OPCODE_MOVE_REQUEST }

func (p *MoveRequest) Read(r *Reader) bool {
	p.Direction = r.U8()
	p.Seq = r.U8()
	p.FastWalkKey = r.U32()
	return r.OK()
}

func (p *MoveRequest) Encode() []byte {
	w := NewWriter(C_OPCODE_MOVE_REQUEST, 7)
	w.U8(p.Direction)
	w.U8(p.Seq)
	w.U32(p.FastWalkKey)
	return w.Bytes()
}

// Stat query types.
const (
	QueryStats  byte = 0x04
	QuerySkills byte = 0x05
)

// StatSkillQuery (0x34).
type StatSkillQuery struct {
	Type   byte
	Serial uint32
}

func (p *StatSkillQuery) Opcode() byte { return C_OPCODE_STAT_SKILL_QUERY }

func (p *StatSkillQuery) Read(r *Reader) bool {
	r.Skip(4)
	p.Type = r.U8()
	p.Serial = r.U32()
	return r.OK()
}

func (p *StatSkillQuery) Encode() []byte {
	w := NewWriter(C_OPCODE_STAT_SKILL_QUERY, 10)
	w.U32(StatQueryPattern)
	w.U8(p.Type)
	w.U32(p.Serial)
	return w.Bytes()
}

// AddToContainer (0x25).
type AddToContainer struct {
	Serial    uint32
	Art       uint16
	ArtOffset byte
	Amount    uint16
	X, Y      uint16
	Grid      byte
	Container uint32
	Hue       uint16
}

func (p *AddToContainer) Opcode() byte { return S_OPCODE_ADD_TO_CONTAINER }

func (p *AddToContainer) Read(r *Reader) bool {
	p.Serial = r.U32()
	p.Art = r.U16()
	p.ArtOffset = r.U8()
	p.Amount = r.U16()
	p.X = r.U16()
	p.Y = r.U16()
	p.Grid = r.U8()
	p.Container = r.U32()
	p.Hue = r.U16()
	return r.OK()
}

func (p *AddToContainer) Encode() []byte {
	w := NewWriter(S_OPCODE_ADD_TO_CONTAINER, 21)
	w.U32(p.Serial)
	w.U16(p.Art)
	w.U8(p.ArtOffset)
	w.U16(p.Amount)
	w.U16(p.X)
	w.U16(p.Y)
	w.U8(p.Grid)
	w.U32(p.Container)
	w.U16(p.Hue)
	return w.Bytes()
}

// WornItem (0x2E) equips an item on a mobile.
type WornItem struct {
	Serial uint32
	Art    uint16
	Layer  byte
	Mobile uint32
	Hue    uint16
}

func (p *WornItem) Opcode() byte { return S_OPCODE_WORN_ITEM }

func (p *WornItem) Read(r *Reader) bool {
	p.Serial = r.U32()
	p.Art = r.U16()
	r.Skip(1)
	p.Layer = r.U8()
	p.Mobile = r.U32()
	p.Hue = r.U16()
	return r.OK()
}

func (p *WornItem) Encode() []byte {
	w := NewWriter(S_OPCODE_WORN_ITEM, 15)
	w.U32(p.Serial)
	w.U16(p.Art)
	w.U8(0)
	w.U8(p.Layer)
	w.U32(p.Mobile)
	w.U16(p.Hue)
	return w.Bytes()
}

// MobileMoving (0x77).
type MobileMoving struct {
	Serial    uint32
	Body      uint16
	X, Y      uint16
	Z         int8
	Direction byte
	Hue       uint16
	Flags     byte
	Notoriety byte
}

func (p *MobileMoving) Opcode() byte { return S_OPCODE_MOBILE_MOVING }

func (p *MobileMoving) Read(r *Reader) bool {
	p.Serial = r.U32()
	p.Body = r.U16()
	p.X = r.U16()
	p.Y = r.U16()
	p.Z = r.I8()
	p.Direction = r.U8()
	p.Hue = r.U16()
	p.Flags = r.U8()
	p.Notoriety = r.U8()
	return r.OK()
}

func (p *MobileMoving) Encode() []byte {
	w := NewWriter(S_OPCODE_MOBILE_MOVING, 17)
	w.U32(p.Serial)
	w.U16(p.Body)
	w.U16(p.X)
	w.U16(p.Y)
	w.I8(p.Z)
	w.U8(p.Direction)
	w.U16(p.Hue)
	w.U8(p.Flags)
	w.U8(p.Notoriety)
	return w.Bytes()
}

// Equipment is one worn item carried in DrawObject.
type Equipment struct {
	Serial uint32
	Art    uint16
	Layer  byte
	Hue    uint16
}

// DrawObject (0x78) shows a mobile with its equipment.
type DrawObject struct {
	MobileMoving
	Equipment []Equipment
}

func (p *DrawObject) Opcode() byte { return S_OPCODE_DRAW_OBJECT }

func (p *DrawObject) Read(r *Reader) bool {
	if !p.MobileMoving.Read(r) {
		return false
	}
	for r.OK() {
		serial := r.U32()
		if serial == 0 {
			break
		}
		e := Equipment{Serial: serial}
		art := r.U16()
		e.Art = art & 0x7FFF
		e.Layer = r.U8()
		if art&0x8000 != 0 {
			e.Hue = r.U16()
		}
		p.Equipment = append(p.Equipment, e)
	}
	return r.OK()
}

func (p *DrawObject) Encode() []byte {
	w := NewDynamicWriter(S_OPCODE_DRAW_OBJECT)
	w.U32(p.Serial)
	w.U16(p.Body)
	w.U16(p.X)
	w.U16(p.Y)
	w.I8(p.Z)
	w.U8(p.Direction)
	w.U16(p.Hue)
	w.U8(p.Flags)
	w.U8(p.Notoriety)
	for _, e := range p.Equipment {
		w.U32(e.Serial)
		if e.Hue != 0 {
			w.U16(e.Art | 0x8000)
			w.U8(e.Layer)
			w.U16(e.Hue)
		} else {
			w.U16(e.Art)
			w.U8(e.Layer)
		}
	}
	w.U32(0)
	return w.Bytes()
}
