package protocol

import "avrkit/core"

// Message IDs. Both ends register Messages in this order, so the IDs
// handed out by core.CommandRegistry match these constants.
const (
	MsgIdentify uint16 = iota
	MsgIdentifyResponse
	MsgKeyEvent
	MsgNunchukState
	MsgRange
	MsgBusError
	MsgLCDPrint
	MsgSegShow
	MsgNunchukCalibrate
	MsgRangeCalibrate
)

// Definition names a message and its argument format.
type Definition struct {
	ID     uint16
	Name   string
	Format string
}

// Messages is the message table in ID order.
var Messages = [...]Definition{
	{MsgIdentify, "identify", "offset=%u count=%c"},
	{MsgIdentifyResponse, "identify_response", "offset=%u data=%.*s"},
	{MsgKeyEvent, "key_event", "key=%c"},
	{MsgNunchukState, "nunchuk_state", "jx=%i jy=%i ax=%i ay=%i az=%i buttons=%c"},
	{MsgRange, "range", "mm=%u"},
	{MsgBusError, "bus_error", "step=%c status=%c"},
	{MsgLCDPrint, "lcd_print", "line=%c justify=%c text=%*s"},
	{MsgSegShow, "seg_show", "value=%c dot=%c"},
	{MsgNunchukCalibrate, "nunchuk_calibrate", ""},
	{MsgRangeCalibrate, "range_calibrate", "measured=%u actual=%u"},
}

// Register adds every message to reg without handlers. It must run on a
// fresh registry so the IDs line up.
func Register(reg *core.CommandRegistry) {
	for _, d := range Messages {
		reg.Register(d.Name, d.Format, nil)
	}
}

// Name returns the registered name of id, or "" if it is unknown.
func Name(id uint16) string {
	if int(id) >= len(Messages) {
		return ""
	}
	return Messages[id].Name
}

// Message is a typed message that can be framed.
type Message interface {
	ID() uint16
	AppendArgs(dst []byte) []byte
}

// AppendMessage appends the ID and arguments of m.
func AppendMessage(dst []byte, m Message) []byte {
	dst = AppendUint(dst, uint32(m.ID()))
	return m.AppendArgs(dst)
}

// Identify asks for count bytes of the compressed dictionary.
type Identify struct {
	Offset uint32
	Count  uint8
}

func (Identify) ID() uint16 { return MsgIdentify }

func (m Identify) AppendArgs(dst []byte) []byte {
	dst = AppendUint(dst, m.Offset)
	return AppendUint(dst, uint32(m.Count))
}

func (m *Identify) Decode(data *[]byte) error {
	off, err := ReadUint(data)
	if err != nil {
		return err
	}
	n, err := ReadUint(data)
	if err != nil {
		return err
	}
	m.Offset, m.Count = off, uint8(n)
	return nil
}

// IdentifyResponse carries one chunk of the dictionary. An empty Data
// marks the end.
type IdentifyResponse struct {
	Offset uint32
	Data   []byte
}

func (IdentifyResponse) ID() uint16 { return MsgIdentifyResponse }

func (m IdentifyResponse) AppendArgs(dst []byte) []byte {
	dst = AppendUint(dst, m.Offset)
	return AppendBytes(dst, m.Data)
}

func (m *IdentifyResponse) Decode(data *[]byte) error {
	off, err := ReadUint(data)
	if err != nil {
		return err
	}
	b, err := ReadBytes(data)
	if err != nil {
		return err
	}
	m.Offset, m.Data = off, b
	return nil
}

// KeyEvent reports a new key press.
type KeyEvent struct {
	Key byte
}

func (KeyEvent) ID() uint16 { return MsgKeyEvent }

func (m KeyEvent) AppendArgs(dst []byte) []byte {
	return AppendUint(dst, uint32(m.Key))
}

func (m *KeyEvent) Decode(data *[]byte) error {
	v, err := ReadUint(data)
	m.Key = byte(v)
	return err
}

// Button bits of NunchukState.Buttons.
const (
	ButtonC = 1 << 0
	ButtonZ = 1 << 1
)

// NunchukState is one calibrated controller reading.
type NunchukState struct {
	JoyX, JoyY             int8
	AccelX, AccelY, AccelZ int16
	Buttons                uint8
}

func (NunchukState) ID() uint16 { return MsgNunchukState }

func (m NunchukState) AppendArgs(dst []byte) []byte {
	dst = AppendInt(dst, int32(m.JoyX))
	dst = AppendInt(dst, int32(m.JoyY))
	dst = AppendInt(dst, int32(m.AccelX))
	dst = AppendInt(dst, int32(m.AccelY))
	dst = AppendInt(dst, int32(m.AccelZ))
	return AppendUint(dst, uint32(m.Buttons))
}

func (m *NunchukState) Decode(data *[]byte) error {
	var v [6]int32
	for i := range v {
		n, err := ReadInt(data)
		if err != nil {
			return err
		}
		v[i] = n
	}
	*m = NunchukState{
		JoyX:    int8(v[0]),
		JoyY:    int8(v[1]),
		AccelX:  int16(v[2]),
		AccelY:  int16(v[3]),
		AccelZ:  int16(v[4]),
		Buttons: uint8(v[5]),
	}
	return nil
}

// Range is one range finder reading in millimeters.
type Range struct {
	MM uint32
}

func (Range) ID() uint16 { return MsgRange }

func (m Range) AppendArgs(dst []byte) []byte {
	return AppendUint(dst, m.MM)
}

func (m *Range) Decode(data *[]byte) error {
	v, err := ReadUint(data)
	m.MM = v
	return err
}

// BusError reports an aborted TWI transaction: the status the failing
// step expected and the status the hardware reported.
type BusError struct {
	Step   uint8
	Status uint8
}

func (BusError) ID() uint16 { return MsgBusError }

func (m BusError) AppendArgs(dst []byte) []byte {
	dst = AppendUint(dst, uint32(m.Step))
	return AppendUint(dst, uint32(m.Status))
}

func (m *BusError) Decode(data *[]byte) error {
	step, err := ReadUint(data)
	if err != nil {
		return err
	}
	status, err := ReadUint(data)
	if err != nil {
		return err
	}
	m.Step, m.Status = uint8(step), uint8(status)
	return nil
}

// LCDPrint writes text on one LCD line.
type LCDPrint struct {
	Line    uint8
	Justify uint8
	Text    string
}

func (LCDPrint) ID() uint16 { return MsgLCDPrint }

func (m LCDPrint) AppendArgs(dst []byte) []byte {
	dst = AppendUint(dst, uint32(m.Line))
	dst = AppendUint(dst, uint32(m.Justify))
	return AppendString(dst, m.Text)
}

func (m *LCDPrint) Decode(data *[]byte) error {
	line, err := ReadUint(data)
	if err != nil {
		return err
	}
	justify, err := ReadUint(data)
	if err != nil {
		return err
	}
	text, err := ReadString(data)
	if err != nil {
		return err
	}
	*m = LCDPrint{Line: uint8(line), Justify: uint8(justify), Text: text}
	return nil
}

// SegShow puts a hex digit on the 7-segment display.
type SegShow struct {
	Value uint8
	Dot   bool
}

func (SegShow) ID() uint16 { return MsgSegShow }

func (m SegShow) AppendArgs(dst []byte) []byte {
	dst = AppendUint(dst, uint32(m.Value))
	var dot uint32
	if m.Dot {
		dot = 1
	}
	return AppendUint(dst, dot)
}

func (m *SegShow) Decode(data *[]byte) error {
	v, err := ReadUint(data)
	if err != nil {
		return err
	}
	dot, err := ReadUint(data)
	if err != nil {
		return err
	}
	m.Value, m.Dot = uint8(v), dot != 0
	return nil
}

// NunchukCalibrate captures the current controller position as neutral.
type NunchukCalibrate struct{}

func (NunchukCalibrate) ID() uint16 { return MsgNunchukCalibrate }

func (NunchukCalibrate) AppendArgs(dst []byte) []byte { return dst }

func (*NunchukCalibrate) Decode(*[]byte) error { return nil }

// RangeCalibrate derives the range finder correction from a reading and
// the true distance, both in millimeters.
type RangeCalibrate struct {
	Measured uint32
	Actual   uint32
}

func (RangeCalibrate) ID() uint16 { return MsgRangeCalibrate }

func (m RangeCalibrate) AppendArgs(dst []byte) []byte {
	dst = AppendUint(dst, m.Measured)
	return AppendUint(dst, m.Actual)
}

func (m *RangeCalibrate) Decode(data *[]byte) error {
	measured, err := ReadUint(data)
	if err != nil {
		return err
	}
	actual, err := ReadUint(data)
	if err != nil {
		return err
	}
	m.Measured, m.Actual = measured, actual
	return nil
}

type decoder[T any] interface {
	*T
	Decode(data *[]byte) error
}

func decodeAs[T Message, PT decoder[T]](data *[]byte) (Message, error) {
	var m T
	if err := PT(&m).Decode(data); err != nil {
		return nil, err
	}
	return m, nil
}

var decoders = [...]func(*[]byte) (Message, error){
	MsgIdentify:         decodeAs[Identify],
	MsgIdentifyResponse: decodeAs[IdentifyResponse],
	MsgKeyEvent:         decodeAs[KeyEvent],
	MsgNunchukState:     decodeAs[NunchukState],
	MsgRange:            decodeAs[Range],
	MsgBusError:         decodeAs[BusError],
	MsgLCDPrint:         decodeAs[LCDPrint],
	MsgSegShow:          decodeAs[SegShow],
	MsgNunchukCalibrate: decodeAs[NunchukCalibrate],
	MsgRangeCalibrate:   decodeAs[RangeCalibrate],
}

// Decode parses a frame payload into its typed message. Byte-string
// fields alias payload.
func Decode(payload []byte) (Message, error) {
	id, err := ReadUint(&payload)
	if err != nil {
		return nil, err
	}
	if id >= uint32(len(decoders)) {
		return nil, ErrUnknownMessage
	}
	return decoders[id](&payload)
}
