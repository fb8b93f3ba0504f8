// Package rrc implements the per-UE RRC connection state machine
// (spec.md section 4.4): connection setup, RAB allocation/release,
// cell update, direct transfer dispatch, integrity handshake, and the
// inactivity reaper.
package rrc

import "github.com/your-org/umts-radio-core/internal/ue"

// AsnUeId is the external UE identity carried in an RRCConnectionRequest,
// used only to recognize a duplicate attach (spec.md section 3).
type AsnUeId struct {
	IMSI        string
	PTMSI       string
	RoutingArea string
	IMEI        string
	ESN         string
}

// Key collapses an AsnUeId to the single string the UE table dedups on.
func (id AsnUeId) Key() string {
	if id.IMSI != "" {
		return "imsi:" + id.IMSI
	}
	if id.PTMSI != "" {
		return "ptmsi:" + id.PTMSI + "/" + id.RoutingArea
	}
	if id.IMEI != "" {
		return "imei:" + id.IMEI
	}
	return "esn:" + id.ESN
}

// Messages consumed on CCCH.
type RRCConnectionRequest struct {
	UeID  AsnUeId
	Cause string
}

type CellUpdate struct {
	URNTI uint32
	Cause string
}

type URAUpdate struct {
	URNTI uint32
}

// Messages consumed on DCCH/SRB1.
type RRCConnectionSetupComplete struct {
	TransactionID uint8
}

type RRCConnectionReleaseComplete struct{}

type RadioBearerSetupComplete struct {
	TransactionID uint8
}

type RadioBearerSetupFailure struct {
	TransactionID uint8
	Cause         string
}

type RadioBearerReleaseComplete struct {
	TransactionID uint8
}

type RadioBearerReleaseFailure struct {
	TransactionID uint8
	Cause         string
}

type UplinkDirectTransfer struct {
	NAS []byte
}

type InitialDirectTransfer struct {
	NAS []byte
}

type RrcStatus struct {
	ErrorType           string
	FailedTransactionID *uint8
}

type SecurityModeComplete struct{}

type SecurityModeFailure struct {
	Cause string
}

type SignallingConnectionReleaseIndication struct{}

type MeasurementReport struct{}

type UeCapabilityInformation struct {
	Capability []byte
}

// Messages emitted.
type RRCConnectionSetup struct {
	URNTI         uint32
	CRNTI         uint16
	TransactionID uint8
	TargetState   ue.State
}

type RRCConnectionRelease struct{}

type RadioBearerSetup struct {
	TransactionID uint8
	RBID          int
}

type RadioBearerRelease struct {
	TransactionID uint8
	RBMask        []int
}

type CellUpdateConfirm struct {
	URNTI uint32
}

type SecurityModeCommand struct {
	Fresh uint32
}

type DownlinkDirectTransfer struct {
	NAS []byte
}
