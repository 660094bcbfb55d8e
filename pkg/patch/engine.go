package patch

import (
	"github.com/dvmgo/dvmfne/pkg/cryptolayer"
	"github.com/dvmgo/dvmfne/pkg/p25"
)

// KeyRequester lets the engine ask the key-management layer for a TEK
// it doesn't yet hold (spec.md §4.7: "on startup, if a TEK is
// configured but not yet known, the engine sends a KMM key-request to
// the FNE"). pkg/kmm implements this.
type KeyRequester interface {
	RequestKey(algID uint8, keyID uint16, onReceived func(key []byte))
}

// FrameSender emits a frame on behalf of the engine — a TDU/terminator
// or re-encrypted LDU — addressed by destination TGID/slot.
type FrameSender interface {
	SendTDU(tgid uint32, slot int, grantDemand bool)
	SendLDU1(tgid uint32, slot int, lc *p25.LDU1)
	SendLDU2(tgid uint32, slot int, lc *p25.LDU2)
}

// Engine is one configured patch: src→dst (and dst→src if TwoWay),
// each direction decrypting with its source TEK (if any) and
// re-encrypting with its destination TEK (if different), per spec.md
// §4.7.
type Engine struct {
	cfg Config

	forward *Direction // src -> dst
	reverse *Direction // dst -> src, nil unless TwoWay

	srcTEK *cryptolayer.Keystream
	dstTEK *cryptolayer.Keystream

	keys   KeyRequester
	sender FrameSender

	srcTEKKnown bool
	dstTEKKnown bool
}

// NewEngine builds an Engine from cfg, requesting any configured TEKs
// that aren't yet known.
func NewEngine(cfg Config, keys KeyRequester, sender FrameSender) *Engine {
	e := &Engine{
		cfg:     cfg,
		forward: NewDirection(cfg.DstTGID, cfg.DstSlot),
		keys:    keys,
		sender:  sender,
	}
	if cfg.TwoWay {
		e.reverse = NewDirection(cfg.SrcTGID, cfg.SrcSlot)
	}

	if cfg.SrcTEKAlgID != 0 {
		e.srcTEK = &cryptolayer.Keystream{}
		e.requestKey(&e.srcTEKKnown, e.srcTEK, cfg.SrcTEKAlgID, cfg.SrcTEKKeyID)
	}
	if cfg.DstTEKAlgID != 0 {
		e.dstTEK = &cryptolayer.Keystream{}
		e.requestKey(&e.dstTEKKnown, e.dstTEK, cfg.DstTEKAlgID, cfg.DstTEKKeyID)
	}
	e.forward.SetTEK(e.dstTEK)
	if e.reverse != nil {
		e.reverse.SetTEK(e.srcTEK)
	}
	return e
}

func (e *Engine) requestKey(known *bool, tek *cryptolayer.Keystream, algID uint8, keyID uint16) {
	if e.keys == nil {
		return
	}
	e.keys.RequestKey(algID, keyID, func(key []byte) {
		if err := tek.SetTEK(algID, key, keyID); err == nil {
			*known = true
		}
	})
}

// CallStart begins a call on the source TG, emitting the grant-demand
// TDU if configured (spec.md §4.7: "On call start: if grantDemand is
// configured, emits a TDU with the remote-grant flag").
func (e *Engine) CallStart(streamID, srcID uint32, mi [9]byte) {
	if e.cfg.GrantDemand {
		e.sender.SendTDU(e.cfg.DstTGID, e.cfg.DstSlot, true)
	}
	e.forward.StartCall(streamID, srcID, mi)
}

// HandleLDU1 re-keys an incoming source-side LDU1 and forwards it on
// the destination TG. Audio is not forwarded while a configured TEK
// hasn't arrived yet (spec.md §4.7's key-acquisition gate).
func (e *Engine) HandleLDU1(lc *p25.LDU1) error {
	if e.cfg.SrcTEKAlgID != 0 && !e.srcTEKKnown {
		return nil
	}
	if e.cfg.DstTEKAlgID != 0 && !e.dstTEKKnown {
		return nil
	}
	if err := e.recrypt(&lc.IMBE, e.srcTEK, e.dstTEK); err != nil {
		return err
	}
	e.sender.SendLDU1(e.cfg.DstTGID, e.cfg.DstSlot, lc)
	return nil
}

// UpdateSourceMI installs the MI the source side's own LDU2 LC block
// just carried, since the engine does not originate the source call
// and so cannot step that MI itself — it mirrors what the source
// transmitted (spec.md §4.7's per-direction MI tracking).
func (e *Engine) UpdateSourceMI(mi [9]byte) {
	if e.srcTEK != nil {
		e.srcTEK.SetMI(mi)
	}
}

// HandleLDU2 re-keys an incoming source-side LDU2, steps the
// destination direction's MI forward one LDU, and forwards it.
func (e *Engine) HandleLDU2(lc *p25.LDU2) error {
	if e.cfg.SrcTEKAlgID != 0 && !e.srcTEKKnown {
		return nil
	}
	if e.cfg.DstTEKAlgID != 0 && !e.dstTEKKnown {
		return nil
	}
	if err := e.recrypt(&lc.IMBE, e.srcTEK, e.dstTEK); err != nil {
		return err
	}
	e.forward.StepMI()
	e.sender.SendLDU2(e.cfg.DstTGID, e.cfg.DstSlot, lc)
	return nil
}

// recrypt decrypts each codeword with src (if set) and re-encrypts
// with dst (if set and different), in place.
func (e *Engine) recrypt(codewords *[9][p25.IMBECodewordLen]byte, src, dst *cryptolayer.Keystream) error {
	if e.cfg.SrcTEKAlgID == e.cfg.DstTEKAlgID && e.cfg.SrcTEKKeyID == e.cfg.DstTEKKeyID {
		return nil // same TEK on both sides: codewords pass through unchanged
	}
	for i := range codewords {
		plain := codewords[i][:]
		var err error
		if src != nil {
			plain, err = src.CryptIMBE(codewords[i][:])
			if err != nil {
				return err
			}
		}
		out := plain
		if dst != nil {
			out, err = dst.CryptIMBE(plain)
			if err != nil {
				return err
			}
		}
		copy(codewords[i][:], out)
	}
	return nil
}

// HandleTerminator ends the call on the destination TG: emits the
// destination terminator, releases direction state, and (if TwoWay)
// leaves the reverse direction untouched since it tracks its own
// independent call (spec.md §4.7).
func (e *Engine) HandleTerminator() {
	e.sender.SendTDU(e.cfg.DstTGID, e.cfg.DstSlot, false)
	e.forward.EndCall()
}
