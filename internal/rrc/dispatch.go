package rrc

import (
	"context"
	"time"

	"github.com/your-org/umts-radio-core/internal/ue"
	"go.uber.org/zap"
)

// L3 protocol discriminators (3GPP TS 24.007 §11.2.3.1.1), the low
// nibble of a NAS message's first octet.
const (
	pdGMM = 0x08
	pdSM  = 0x0a
	pdMM  = 0x05
	pdCC  = 0x03
	pdRR  = 0x06
	pdSMS = 0x09
)

// dispatchNAS routes a NAS octet string by protocol discriminator
// (spec.md section 4.4): GMM/SM trigger a RAB allocation through the
// SGSN boundary, MM/CC/RR and SMS are handed to their own collaborators
// — both out of scope here (spec.md section 1), so they are logged and
// dropped rather than silently ignored.
func (c *Controller) dispatchNAS(u *ue.UE, nas []byte) {
	if len(nas) == 0 {
		return
	}
	pd := nas[0] & 0x0f
	switch pd {
	case pdGMM, pdSM:
		c.handleSessionManagementNAS(u, nas)
	case pdMM, pdCC, pdRR:
		c.logger.Info("NAS routed to voice call-control collaborator",
			zap.Uint32("urnti", u.URNTI), zap.Uint8("pd", pd))
	case pdSMS:
		c.logger.Info("NAS routed to SMS relay collaborator",
			zap.Uint32("urnti", u.URNTI))
	default:
		c.logger.Warn("NAS message with unknown protocol discriminator",
			zap.Uint32("urnti", u.URNTI), zap.Uint8("pd", pd))
	}
}

// handleSessionManagementNAS forwards GMM/SM octets up to the SGSN and,
// for the one message shape this core interprets (an Activate PDP
// Context Request carrying a target RB and a QoS peak-rate byte),
// triggers allocateRabForPdp. Any other GMM/SM content is transparently
// forwarded and otherwise left to the collaborator.
func (c *Controller) handleSessionManagementNAS(u *ue.UE, nas []byte) {
	if err := c.sgsn.WriteHighSide(context.Background(), u.URNTI, ue.RBSRBTo, nas, "gmm-sm"); err != nil {
		c.logger.Error("failed to forward GMM/SM NAS to SGSN", zap.Uint32("urnti", u.URNTI), zap.Error(err))
	}
	if len(nas) >= 4 && nas[1] == activatePDPContextRequestMsgType {
		rbID := int(nas[2])
		qosBytesPerSec := int(nas[3])
		c.AllocateRabForPdp(u, rbID, qosBytesPerSec, time.Now())
	}
}

// activatePDPContextRequestMsgType is the SM message-type octet this
// core recognizes to trigger allocateRabForPdp; every other SM/GMM
// message type is forwarded but not interpreted (the full NAS state
// machine is out of scope, spec.md section 1).
const activatePDPContextRequestMsgType = 0x41
