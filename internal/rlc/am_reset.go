package rlc

import "time"

// TriggerReset starts a RESET procedure on demand, e.g. when the RRC
// controller observes a Cell Update after an AM sequence desync (spec.md
// section 9, Open Questions).
func (a *AMEntity) TriggerReset(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initiateReset(now)
}

// initiateReset starts the RESET procedure (the first RESET PDU is due on
// the next Pull, and sending it starts Timer_RST), or — if one is already
// in flight — just rearms Timer_RST with the same RSN: retriggering a reset
// already in progress must leave state identical to a single RESET
// (spec.md section 8, "Reset idempotence"). RSN only advances once the
// peer acknowledges (receiveResetAck), matching original_source/UMTS/URLC.cpp's
// mResetTransRSN, which is incremented solely on ack, never on (re)trigger.
func (a *AMEntity) initiateReset(now time.Time) {
	a.resetAttempts = 1
	if a.resetInFlight {
		a.resetDeadline = now.Add(a.cfg.TimerRST)
		return
	}
	a.resetInFlight = true
	a.resetDeadline = now
	a.flushForReset()
}

func (a *AMEntity) flushForReset() {
	a.pending = nil
	a.bufBytes = 0
	a.txBuf = make(map[uint16]*amTxRecord)
	a.retransmitQueue = make(map[uint16]bool)
}

// retransmitReset re-sends RESET with the same RSN on Timer_RST expiry.
// After MaxRST attempts the entity is declared STOPPED.
func (a *AMEntity) retransmitReset(now time.Time) []byte {
	if a.cfg.MaxRST > 0 && a.resetAttempts > a.cfg.MaxRST {
		a.state = StateStopped
		a.resetInFlight = false
		if a.notifyStopped != nil {
			go a.notifyStopped()
		}
		return nil
	}
	a.resetAttempts++
	a.resetDeadline = now.Add(a.cfg.TimerRST)
	return encodeResetPDU(a.rsn)
}

func encodeResetPDU(rsn uint8) []byte {
	return []byte{encodeAMControlType(CtrlReset), rsn}
}

func encodeResetAckPDU(rsn uint8) []byte {
	return []byte{encodeAMControlType(CtrlResetAck), rsn}
}

// receiveReset handles an inbound RESET. A new RSN triggers a full reset
// of both halves and a RESET_ACK echoing the inbound RSN; a repeated RSN
// (our own reset crossing the peer's) is idempotent.
func (a *AMEntity) receiveReset(now time.Time, body []byte) {
	if len(body) < 1 {
		return
	}
	peerRSN := body[0]
	if a.havePeerRSN && a.peerRSN == peerRSN {
		// Already processed this RSN; still (harmlessly) re-ack it.
		a.queueControlSend(encodeResetAckPDU(peerRSN))
		return
	}
	a.peerRSN = peerRSN
	a.havePeerRSN = true

	a.vtS, a.vtA = 0, 0
	a.vrR, a.vrH = 0, 0
	a.flushForReset()
	a.rxBuf = make(map[uint16]amRxRecord)
	a.rxPartial = nil
	a.rxSynced = true
	a.statusPending = false
	a.statusSN = 0

	a.queueControlSend(encodeResetAckPDU(peerRSN))
}

// receiveResetAck completes a reset we initiated, if the echoed RSN
// matches our outbound one: both halves' state is already zero (from
// initiateReset's flush), the HFN advances, Timer_RST is cleared, and RSN
// advances so the next reset cycle uses a fresh value (spec.md section
// 4.2, "Reset").
func (a *AMEntity) receiveResetAck(now time.Time, body []byte) {
	if len(body) < 1 || !a.resetInFlight {
		return
	}
	if body[0] != a.rsn {
		return
	}
	a.resetInFlight = false
	a.resetAttempts = 0
	a.vtS, a.vtA = 0, 0
	a.vrR, a.vrH = 0, 0
	a.rxPartial = nil
	a.rxSynced = true
	a.hfn++
	a.rsn++
}

// pendingControl holds a one-shot control PDU (RESET_ACK) queued for the
// next Pull, since RESET_ACK is reactive rather than scheduled like
// RESET/STATUS.
func (a *AMEntity) queueControlSend(pdu []byte) {
	a.pendingControl = append(a.pendingControl, pdu)
}
