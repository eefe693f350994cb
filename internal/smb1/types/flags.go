package types

// HeaderFlags is the decoded form of the SMB header's one-byte flags field.
// Bit layout per MS-CIFS 2.2.3.1.
type HeaderFlags struct {
	Reply              bool
	OplockEnabled      bool
	OplockBatch        bool
	PathnamesCanonical bool
	PathnamesCaseless  bool
	LockRead           bool
}

const (
	flagLockRead    = 0x01
	flagReadWrite   = 0x08 // pathnames.caseless, per MS-CIFS SMB_FLAGS_CASE_INSENSITIVE
	flagCanonical   = 0x10
	flagOplockBatch = 0x40
	flagOplock      = 0x20
	flagReply       = 0x80
)

// DecodeFlags splits the raw flags byte into its structured fields.
func DecodeFlags(b byte) HeaderFlags {
	return HeaderFlags{
		Reply:              b&flagReply != 0,
		OplockEnabled:      b&flagOplock != 0,
		OplockBatch:        b&flagOplockBatch != 0,
		PathnamesCanonical: b&flagCanonical != 0,
		PathnamesCaseless:  b&flagReadWrite != 0,
		LockRead:           b&flagLockRead != 0,
	}
}

// Encode packs the structured fields back into the raw flags byte.
func (f HeaderFlags) Encode() byte {
	var b byte
	if f.LockRead {
		b |= flagLockRead
	}
	if f.PathnamesCaseless {
		b |= flagReadWrite
	}
	if f.PathnamesCanonical {
		b |= flagCanonical
	}
	if f.OplockBatch {
		b |= flagOplockBatch
	}
	if f.OplockEnabled {
		b |= flagOplock
	}
	if f.Reply {
		b |= flagReply
	}
	return b
}

// StatusKind selects whether the header's Status field is an NT 32-bit
// status code or a DOS {class, code} pair.
type StatusKind int

const (
	StatusKindDOS StatusKind = iota
	StatusKindNT
)

// HeaderFlags2 is the decoded form of the SMB header's two-byte flags2 field.
type HeaderFlags2 struct {
	PathnamesLongEnabled   bool
	EAs                    bool
	SecuritySignatureEn    bool
	Extended               bool // reserved bit, carried for completeness
	PathnamesDFS           bool
	PathnamesLongSupported bool
	ReadIfExecute          bool
	SecuritySignatureReq   bool
	SecurityExtended       bool
	Status                 StatusKind
	Unicode                bool
}

const (
	f2LongNames      = 0x0001
	f2EAs            = 0x0002
	f2SignatureEn    = 0x0004
	f2SignatureReq   = 0x0010
	f2IsLongName     = 0x0040
	f2DFS            = 0x1000
	f2ReadIfExecute  = 0x2000
	f2Status32       = 0x4000
	f2Unicode        = 0x8000
	f2SecurityExtend = 0x0800
)

// DecodeFlags2 splits the raw flags2 word into its structured fields.
func DecodeFlags2(w uint16) HeaderFlags2 {
	return HeaderFlags2{
		PathnamesLongEnabled:   w&f2LongNames != 0,
		EAs:                    w&f2EAs != 0,
		SecuritySignatureEn:    w&f2SignatureEn != 0,
		SecuritySignatureReq:   w&f2SignatureReq != 0,
		PathnamesDFS:           w&f2DFS != 0,
		PathnamesLongSupported: w&f2IsLongName != 0,
		ReadIfExecute:          w&f2ReadIfExecute != 0,
		SecurityExtended:       w&f2SecurityExtend != 0,
		Unicode:                w&f2Unicode != 0,
		Status: func() StatusKind {
			if w&f2Status32 != 0 {
				return StatusKindNT
			}
			return StatusKindDOS
		}(),
	}
}

// Encode packs the structured fields back into the raw flags2 word.
func (f HeaderFlags2) Encode() uint16 {
	var w uint16
	if f.PathnamesLongEnabled {
		w |= f2LongNames
	}
	if f.EAs {
		w |= f2EAs
	}
	if f.SecuritySignatureEn {
		w |= f2SignatureEn
	}
	if f.SecuritySignatureReq {
		w |= f2SignatureReq
	}
	if f.PathnamesLongSupported {
		w |= f2IsLongName
	}
	if f.PathnamesDFS {
		w |= f2DFS
	}
	if f.ReadIfExecute {
		w |= f2ReadIfExecute
	}
	if f.SecurityExtended {
		w |= f2SecurityExtend
	}
	if f.Status == StatusKindNT {
		w |= f2Status32
	}
	if f.Unicode {
		w |= f2Unicode
	}
	return w
}

// Capabilities is the NEGOTIATE response capability bitmask.
type Capabilities uint32

const (
	CapRawMode          Capabilities = 1 << 0
	CapMpxMode          Capabilities = 1 << 1
	CapUnicode          Capabilities = 1 << 2
	CapLargeFiles       Capabilities = 1 << 3
	CapNTSMBs           Capabilities = 1 << 4
	CapRPCRemoteAPIs    Capabilities = 1 << 5
	CapStatus32         Capabilities = 1 << 6
	CapLevel2Oplocks    Capabilities = 1 << 7
	CapLockAndRead      Capabilities = 1 << 8
	CapNTFind           Capabilities = 1 << 9
	CapDFS              Capabilities = 1 << 12
	CapInfoLevelPassthru Capabilities = 1 << 13
	CapLargeReadX       Capabilities = 1 << 14
	CapLargeWriteX      Capabilities = 1 << 15
)

// NegotiateCapabilities is the capability set the server advertises, per
// spec §4.5 NEGOTIATE handler contract.
const NegotiateCapabilities = CapNTSMBs | CapNTFind | CapStatus32 |
	CapLevel2Oplocks | CapLockAndRead | CapLargeFiles | CapUnicode

// Has reports whether all bits in mask are set in c.
func (c Capabilities) Has(mask Capabilities) bool { return c&mask == mask }

// SecurityMode bits for the NEGOTIATE response's security mode byte.
const (
	SecurityModeUser             = 0x01
	SecurityModeEncryptPasswords = 0x02
)
