package rlc

// buildFragmentedPayload concatenates SDU bytes off the front of queue
// into a payload of at most payloadCap bytes, producing the LI chain that
// marks every SDU boundary crossed. Shared by UM and AM data-PDU assembly
// since both use the same LI encoding (spec.md section 4.2).
func buildFragmentedPayload(queue *[]*umPendingSDU, consumedBytes *int, payloadCap, widthBits int) ([]byte, []LI) {
	var payload []byte
	var lis []LI
	firstSegment := true

	for payloadCap > 0 && len(*queue) > 0 {
		cur := (*queue)[0]
		remaining := len(cur.bytes) - cur.offset
		if remaining <= payloadCap {
			payload = append(payload, cur.bytes[cur.offset:]...)
			payloadCap -= remaining
			*consumedBytes -= len(cur.bytes)
			*queue = (*queue)[1:]
			if firstSegment && cur.offset == 0 && payloadCap == 0 && len(*queue) == 0 {
				lis = append(lis, LI{Value: exactSDULI(widthBits)})
			} else {
				lis = append(lis, LI{Value: uint16(remaining)})
			}
			firstSegment = false
		} else {
			payload = append(payload, cur.bytes[cur.offset:cur.offset+payloadCap]...)
			cur.offset += payloadCap
			payloadCap = 0
		}
	}

	if payloadCap > 0 {
		payload = append(payload, make([]byte, payloadCap)...)
		lis = append(lis, LI{Value: paddingLI(widthBits)})
	}
	for i := range lis {
		lis[i].Last = i == len(lis)-1
	}
	return payload, lis
}

// buildSingleSDUFragment consumes at most one SDU segment off the front of
// queue into a payload of at most payloadCap bytes. Unlike
// buildFragmentedPayload, it never starts packing a second queued SDU into
// the same PDU: this core's AM bearers carry one SDU (or one fragment of
// an oversized SDU) per PDU (spec.md section 4.2, AM fragmentation).
func buildSingleSDUFragment(queue *[]*umPendingSDU, consumedBytes *int, payloadCap, widthBits int) ([]byte, []LI) {
	var payload []byte
	var lis []LI

	if payloadCap > 0 && len(*queue) > 0 {
		cur := (*queue)[0]
		remaining := len(cur.bytes) - cur.offset
		if remaining <= payloadCap {
			payload = append(payload, cur.bytes[cur.offset:]...)
			*consumedBytes -= len(cur.bytes)
			*queue = (*queue)[1:]
			if cur.offset == 0 && remaining == payloadCap {
				lis = append(lis, LI{Value: exactSDULI(widthBits)})
			} else {
				lis = append(lis, LI{Value: uint16(remaining)})
			}
			payloadCap -= remaining
		} else {
			payload = append(payload, cur.bytes[cur.offset:cur.offset+payloadCap]...)
			cur.offset += payloadCap
			payloadCap = 0
		}
	}

	if payloadCap > 0 {
		payload = append(payload, make([]byte, payloadCap)...)
		lis = append(lis, LI{Value: paddingLI(widthBits)})
	}
	for i := range lis {
		lis[i].Last = i == len(lis)-1
	}
	return payload, lis
}

// reassembleLIChain walks one PDU's LI chain against its payload, emitting
// each completed SDU and carrying any partially-assembled SDU bytes
// forward in partial. Shared by the UM and AM receivers, since both use
// the same LI semantics (spec.md section 4.2).
func reassembleLIChain(payload []byte, lis []LI, partial []byte, synced bool, widthBits int, emit func([]byte)) ([]byte, bool) {
	pos := 0
	if len(lis) == 0 {
		if synced {
			partial = append(partial, payload...)
		}
		return partial, synced
	}
	for _, li := range lis {
		switch li.Value {
		case uint16(paddingLI(widthBits)):
			return partial, synced
		case uint16(startOfSDULI(widthBits)):
			partial = nil
			synced = true
			continue
		case uint16(exactSDULI(widthBits)):
			if len(payload[pos:]) > 0 {
				emit(payload[pos:])
			}
			return nil, true
		default:
			if isSpecial(widthBits, li.Value) {
				continue
			}
			end := pos + int(li.Value)
			if end > len(payload) {
				end = len(payload)
			}
			if synced {
				partial = append(partial, payload[pos:end]...)
				emit(partial)
				partial = nil
			}
			synced = true
			pos = end
		}
	}
	if pos < len(payload) && synced {
		partial = append(partial, payload[pos:]...)
	}
	return partial, synced
}
