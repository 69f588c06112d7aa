package twi

// Status is the masked value of TWSR after a bus operation completes.
type Status uint8

// StatusMask strips the prescaler bits from TWSR.
const StatusMask = 0xF8

// Master transmitter and receiver
const (
	StartSent         Status = 0x08
	RepeatedStartSent Status = 0x10
	AddrWriteAck      Status = 0x18
	AddrWriteNack     Status = 0x20
	DataSentAck       Status = 0x28
	DataSentNack      Status = 0x30
	ArbitrationLost   Status = 0x38
	AddrReadAck       Status = 0x40
	AddrReadNack      Status = 0x48
	DataReceivedAck   Status = 0x50
	DataReceivedNack  Status = 0x58
)

// Slave receiver
const (
	SlaveAddrWriteAck          Status = 0x60
	SlaveArbLostAddrWriteAck   Status = 0x68
	SlaveGeneralCallAck        Status = 0x70
	SlaveArbLostGeneralCallAck Status = 0x78
	SlaveDataReceivedAck       Status = 0x80
	SlaveDataReceivedNack      Status = 0x88
	SlaveGeneralCallDataAck    Status = 0x90
	SlaveGeneralCallDataNack   Status = 0x98
	SlaveStopReceived          Status = 0xA0
)

// Slave transmitter
const (
	SlaveAddrReadAck        Status = 0xA8
	SlaveArbLostAddrReadAck Status = 0xB0
	SlaveDataSentAck        Status = 0xB8
	SlaveDataSentNack       Status = 0xC0
	SlaveLastDataSentAck    Status = 0xC8
)

// Miscellaneous
const (
	NoInfo   Status = 0xF8
	BusError Status = 0x00
)

var statusNames = map[Status]string{
	StartSent:                  "START",
	RepeatedStartSent:          "REPEATED_START",
	AddrWriteAck:               "SLA+W_ACK",
	AddrWriteNack:              "SLA+W_NACK",
	DataSentAck:                "DATA_SENT_ACK",
	DataSentNack:               "DATA_SENT_NACK",
	ArbitrationLost:            "ARBITRATION_LOST",
	AddrReadAck:                "SLA+R_ACK",
	AddrReadNack:               "SLA+R_NACK",
	DataReceivedAck:            "DATA_RECEIVED_ACK",
	DataReceivedNack:           "DATA_RECEIVED_NACK",
	SlaveAddrWriteAck:          "SLV_SLA+W_ACK",
	SlaveArbLostAddrWriteAck:   "SLV_ARB_LOST_SLA+W_ACK",
	SlaveGeneralCallAck:        "SLV_GENERAL_CALL_ACK",
	SlaveArbLostGeneralCallAck: "SLV_ARB_LOST_GENERAL_CALL_ACK",
	SlaveDataReceivedAck:       "SLV_DATA_RECEIVED_ACK",
	SlaveDataReceivedNack:      "SLV_DATA_RECEIVED_NACK",
	SlaveGeneralCallDataAck:    "SLV_GENERAL_CALL_DATA_ACK",
	SlaveGeneralCallDataNack:   "SLV_GENERAL_CALL_DATA_NACK",
	SlaveStopReceived:          "SLV_STOP",
	SlaveAddrReadAck:           "SLV_SLA+R_ACK",
	SlaveArbLostAddrReadAck:    "SLV_ARB_LOST_SLA+R_ACK",
	SlaveDataSentAck:           "SLV_DATA_SENT_ACK",
	SlaveDataSentNack:          "SLV_DATA_SENT_NACK",
	SlaveLastDataSentAck:       "SLV_LAST_DATA_SENT_ACK",
	NoInfo:                     "NO_INFO",
	BusError:                   "BUS_ERROR",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	const hex = "0123456789ABCDEF"
	return "STATUS_0x" + string([]byte{hex[s>>4], hex[s&0x0F]})
}
