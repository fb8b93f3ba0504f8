// Package chconfig is the "master channel config" registry described in
// spec.md section 4.5: each named config ties one TrCh layout to the set
// of RBs bound to it, and is the single source of truth for both the
// local RLC/MAC wiring and the over-the-air IE built for the UE.
package chconfig

import (
	"fmt"
	"sync"

	"github.com/your-org/umts-radio-core/internal/rlc"
	"github.com/your-org/umts-radio-core/internal/transport"
)

// RBConfig binds one radio bearer to a TrCh under a master config, with
// independent uplink/downlink RLC modes (spec.md section 3, "Radio
// Bearer").
type RBConfig struct {
	RBID        int
	TrChID      int
	UplinkMode  rlc.Mode
	DownlinkMode rlc.Mode
	PDUSizeBytes int
}

// MasterConfig names one TrCh setup and the RBs bound to it.
type MasterConfig struct {
	Name         string
	TransportChannels []transport.TransportChannel
	RadioBearers []RBConfig
}

// Registry holds the configured master configs, pre-loaded with the four
// defaults spec.md section 4.5 names.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*MasterConfig
}

const (
	NameIdleCCCH      = "idle-ccch"
	NameCellFACH      = "cell-fach"
	NameCellDCHPacket = "cell-dch-ps"
	NameCellDCHVoice  = "cell-dch-cs"
)

// NewRegistry builds a registry pre-loaded with the four pre-defined
// master configs (spec.md section 4.5). useTurbo mirrors the
// UMTS.UseTurboCodes runtime setting.
func NewRegistry(useTurbo bool) *Registry {
	r := &Registry{configs: make(map[string]*MasterConfig)}
	r.configs[NameIdleCCCH] = idleCCCHConfig()
	r.configs[NameCellFACH] = cellFACHConfig()
	r.configs[NameCellDCHPacket] = cellDCHPacketConfig(useTurbo)
	r.configs[NameCellDCHVoice] = cellDCHVoiceConfig()
	return r
}

func (r *Registry) Get(name string) (*MasterConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("chconfig: no master config named %q", name)
	}
	return c, nil
}

// Put installs or replaces a master config, e.g. an operator override
// loaded from the runtime configuration file.
func (r *Registry) Put(c *MasterConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[c.Name] = c
}

func codingFor(useTurbo bool) transport.CodingType {
	if useTurbo {
		return transport.CodingTurbo
	}
	return transport.CodingConvolutionalHalf
}

// idleCCCHConfig is the CCCH/SRB0 configuration used in idle mode on
// RACH/FACH: SRB0 uplink-TM/downlink-UM (spec.md section 3).
func idleCCCHConfig() *MasterConfig {
	return &MasterConfig{
		Name: NameIdleCCCH,
		TransportChannels: []transport.TransportChannel{
			{ID: 0, Kind: transport.TrChRACH, Multiplexed: false, BoundRB: 0},
			{ID: 1, Kind: transport.TrChFACH, Multiplexed: false, BoundRB: 0},
		},
		RadioBearers: []RBConfig{
			{RBID: 0, TrChID: 0, UplinkMode: rlc.ModeTM, DownlinkMode: rlc.ModeUM, PDUSizeBytes: 36},
		},
	}
}

// cellFACHConfig carries SRB1-3 on a shared TrCh once a UE has a
// U-RNTI but no dedicated channel.
func cellFACHConfig() *MasterConfig {
	return &MasterConfig{
		Name: NameCellFACH,
		TransportChannels: []transport.TransportChannel{
			{ID: 0, Kind: transport.TrChRACH, Multiplexed: true},
			{ID: 1, Kind: transport.TrChFACH, Multiplexed: true},
		},
		RadioBearers: []RBConfig{
			{RBID: 1, TrChID: 1, UplinkMode: rlc.ModeUM, DownlinkMode: rlc.ModeUM, PDUSizeBytes: 36},
			{RBID: 2, TrChID: 1, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 36},
			{RBID: 3, TrChID: 1, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 36},
		},
	}
}

// cellDCHPacketConfig is the packet-switched CELL_DCH configuration:
// SRBs plus one data RB on a dedicated multiplexed TrCh, AM-RLC with a
// 2047-PDU window (spec.md section 4.5).
func cellDCHPacketConfig(useTurbo bool) *MasterConfig {
	coding := codingFor(useTurbo)
	return &MasterConfig{
		Name: NameCellDCHPacket,
		TransportChannels: []transport.TransportChannel{
			{ID: 2, Kind: transport.TrChDCH, Multiplexed: true, TFS: transport.TransportFormatSet{Coding: coding}},
		},
		RadioBearers: []RBConfig{
			{RBID: 1, TrChID: 2, UplinkMode: rlc.ModeUM, DownlinkMode: rlc.ModeUM, PDUSizeBytes: 36},
			{RBID: 2, TrChID: 2, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 36},
			{RBID: 3, TrChID: 2, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 36},
			{RBID: 5, TrChID: 2, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 128},
		},
	}
}

// AMTransmissionWindow is the PDU window used by the CELL_DCH
// packet-switched data RB (spec.md section 4.5: "2047-PDU transmission
// window").
const AMTransmissionWindow = 2047

// cellDCHVoiceConfig is the circuit-switched CELL_DCH configuration:
// three TM-RLCs on three separate TrChs for AMR voice sub-flows, plus
// SRBs on a fourth multiplexed TrCh (spec.md section 4.5).
func cellDCHVoiceConfig() *MasterConfig {
	return &MasterConfig{
		Name: NameCellDCHVoice,
		TransportChannels: []transport.TransportChannel{
			{ID: 3, Kind: transport.TrChDCH, Multiplexed: false, BoundRB: 6},
			{ID: 4, Kind: transport.TrChDCH, Multiplexed: false, BoundRB: 7},
			{ID: 5, Kind: transport.TrChDCH, Multiplexed: false, BoundRB: 8},
			{ID: 6, Kind: transport.TrChDCH, Multiplexed: true},
		},
		RadioBearers: []RBConfig{
			{RBID: 6, TrChID: 3, UplinkMode: rlc.ModeTM, DownlinkMode: rlc.ModeTM},
			{RBID: 7, TrChID: 4, UplinkMode: rlc.ModeTM, DownlinkMode: rlc.ModeTM},
			{RBID: 8, TrChID: 5, UplinkMode: rlc.ModeTM, DownlinkMode: rlc.ModeTM},
			{RBID: 1, TrChID: 6, UplinkMode: rlc.ModeUM, DownlinkMode: rlc.ModeUM, PDUSizeBytes: 36},
			{RBID: 2, TrChID: 6, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 36},
			{RBID: 3, TrChID: 6, UplinkMode: rlc.ModeAM, DownlinkMode: rlc.ModeAM, PDUSizeBytes: 36},
		},
	}
}
