package packet

import "fmt"

// PropertyID is an MQTT 5 property identifier (spec §4.5): a closed
// enumeration, each with a fixed wire value type.
type PropertyID byte

const (
	PropPayloadFormatIndicator          PropertyID = 0x01
	PropMessageExpiryInterval           PropertyID = 0x02
	PropContentType                     PropertyID = 0x03
	PropResponseTopic                   PropertyID = 0x08
	PropCorrelationData                 PropertyID = 0x09
	PropSubscriptionIdentifier          PropertyID = 0x0B
	PropSessionExpiryInterval           PropertyID = 0x11
	PropAssignedClientIdentifier        PropertyID = 0x12
	PropServerKeepAlive                 PropertyID = 0x13
	PropAuthenticationMethod            PropertyID = 0x15
	PropAuthenticationData              PropertyID = 0x16
	PropRequestProblemInformation       PropertyID = 0x17
	PropWillDelayInterval               PropertyID = 0x18
	PropRequestResponseInformation      PropertyID = 0x19
	PropResponseInformation             PropertyID = 0x1A
	PropServerReference                 PropertyID = 0x1C
	PropReasonString                    PropertyID = 0x1F
	PropReceiveMaximum                  PropertyID = 0x21
	PropTopicAliasMaximum               PropertyID = 0x22
	PropTopicAlias                      PropertyID = 0x23
	PropMaximumQoS                      PropertyID = 0x24
	PropRetainAvailable                 PropertyID = 0x25
	PropUserProperty                    PropertyID = 0x26
	PropMaximumPacketSize               PropertyID = 0x27
	PropWildcardSubscriptionAvailable   PropertyID = 0x28
	PropSubscriptionIdentifiersAvail    PropertyID = 0x29
	PropSharedSubscriptionAvailable     PropertyID = 0x2A
)

// repeatable identifiers bypass the at-most-once duplicate check (spec
// §4.5): user properties may repeat, and a PUBLISH/SUBSCRIBE may carry
// more than one subscription identifier... in practice PUBLISH carries at
// most one, but the identifier itself is defined repeatable by the spec.
var repeatableProperty = map[PropertyID]bool{
	PropUserProperty:           true,
	PropSubscriptionIdentifier: true,
}

func init() {
	for id, name := range map[PropertyID]string{
		PropPayloadFormatIndicator:        "payload_format_indicator",
		PropMessageExpiryInterval:         "message_expiry_interval",
		PropContentType:                   "content_type",
		PropResponseTopic:                 "response_topic",
		PropCorrelationData:               "correlation_data",
		PropSessionExpiryInterval:         "session_expiry_interval",
		PropAssignedClientIdentifier:      "assigned_client_identifier",
		PropServerKeepAlive:               "server_keep_alive",
		PropAuthenticationMethod:          "authentication_method",
		PropAuthenticationData:            "authentication_data",
		PropRequestProblemInformation:     "request_problem_information",
		PropWillDelayInterval:             "will_delay_interval",
		PropRequestResponseInformation:    "request_response_information",
		PropResponseInformation:           "response_information",
		PropServerReference:               "server_reference",
		PropReasonString:                  "reason_string",
		PropReceiveMaximum:                "receive_maximum",
		PropTopicAliasMaximum:             "topic_alias_maximum",
		PropTopicAlias:                    "topic_alias",
		PropMaximumQoS:                    "maximum_qos",
		PropRetainAvailable:               "retain_available",
		PropMaximumPacketSize:             "maximum_packet_size",
		PropWildcardSubscriptionAvailable: "wildcard_subscription_available",
		PropSubscriptionIdentifiersAvail:  "subscription_identifiers_available",
		PropSharedSubscriptionAvailable:   "shared_subscription_available",
	} {
		registerDuplicateError(id, name)
	}
}

// Properties holds every v5 property field used anywhere in the packet
// set. A given packet type only ever populates the subset valid for it;
// readers enforce duplicate/at-most-once rules uniformly regardless of
// which subset is in play, mirroring how the wire format itself doesn't
// distinguish "valid here" from "parseable here" at the property-block
// level (that's a semantic check layered on top, left to callers).
type Properties struct {
	PayloadFormatIndicator        *uint8
	MessageExpiryInterval         *uint32
	ContentType                   *string
	ResponseTopic                 *string
	CorrelationData               []byte
	SubscriptionIdentifiers       []uint32
	SessionExpiryInterval         *uint32
	AssignedClientIdentifier      *string
	ServerKeepAlive               *uint16
	AuthenticationMethod          *string
	AuthenticationData            []byte
	RequestProblemInformation     *uint8
	WillDelayInterval             *uint32
	RequestResponseInformation    *uint8
	ResponseInformation           *string
	ServerReference               *string
	ReasonString                  *string
	ReceiveMaximum                *uint16
	TopicAliasMaximum             *uint16
	TopicAlias                    *uint16
	MaximumQoS                    *uint8
	RetainAvailable                *uint8
	UserProperties                 []UserProperty
	MaximumPacketSize               *uint32
	WildcardSubscriptionAvailable   *uint8
	SubscriptionIdentifiersAvailable *uint8
	SharedSubscriptionAvailable     *uint8

	// seen tracks which at-most-once identifiers have already been
	// decoded in this property block; it persists across the resumed
	// Decode calls of that block.
	seen uint64
}

// UserProperty is the repeatable name/value pair (identifier 0x26).
type UserProperty struct {
	Name  string
	Value string
}

// propDecodeState is the resumable state of an in-flight Properties.Decode
// call, carried across suspensions in the owning packet's ReadContext-style
// scratch. Unlike the fixed-size wire primitives, a property block has an
// unbounded number of (identifier, value) pairs, so its own "sequence" is
// the number of bytes consumed so far against the declared length plus
// whichever sub-field decode is in progress.
type propDecodeState struct {
	length   uint32 // declared length N, set once on first call
	consumed uint32 // bytes consumed so far within the block
	lengthKnown bool
	haveID   bool
	id       PropertyID
}

// Decode resumably parses a v5 property block: a leading variable-length
// integer N, then N bytes of zero or more (identifier, value) pairs. It
// may be called repeatedly across suspensions; st must be the same
// *propDecodeState instance for the life of one block, and rc the
// ReadContext of the owning packet (its scratch is reused for whichever
// sub-field is currently being read).
func (p *Properties) Decode(st *propDecodeState, rc *ReadContext, src *Source) (done bool, err error) {
	if !st.lengthKnown {
		n, ok, err := DecodeVariableInteger(rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		st.length = n
		st.lengthKnown = true
	}
	for st.consumed < st.length {
		if !st.haveID {
			b, ok, err := DecodeByte(src)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			st.id = PropertyID(b)
			st.haveID = true
			st.consumed++
		}
		n, ok, err := p.decodeValue(st.id, rc, src)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		st.consumed += n
		st.haveID = false
	}
	if st.consumed != st.length {
		return false, ErrPropertyLengthMismatch
	}
	prefixSize, err := VariableIntegerSize(st.length)
	if err != nil {
		return false, err
	}
	rc.consume(uint32(prefixSize) + st.length)
	return true, nil
}

// decodeValue reads the identifier-specific value, enforcing the
// at-most-once bit for non-repeatable identifiers, and returns the number
// of value bytes consumed (not counting the identifier byte, already
// counted by the caller).
func (p *Properties) decodeValue(id PropertyID, rc *ReadContext, src *Source) (n uint32, ok bool, err error) {
	if !repeatableProperty[id] {
		bit := uint64(1) << uint(id&0x3F)
		if p.seen&bit != 0 {
			return 0, false, ErrDuplicateProperty(id)
		}
		defer func() {
			if ok && err == nil {
				p.seen |= bit
			}
		}()
	}

	switch id {
	case PropPayloadFormatIndicator:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.PayloadFormatIndicator = &v
		return 1, true, nil
	case PropRequestProblemInformation:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		if v > 1 {
			return 0, false, ErrMalformedPacket
		}
		p.RequestProblemInformation = &v
		return 1, true, nil
	case PropRequestResponseInformation:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.RequestResponseInformation = &v
		return 1, true, nil
	case PropMaximumQoS:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		if v > 1 {
			return 0, false, ErrMalformedMaximumQoS
		}
		p.MaximumQoS = &v
		return 1, true, nil
	case PropRetainAvailable:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.RetainAvailable = &v
		return 1, true, nil
	case PropWildcardSubscriptionAvailable:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.WildcardSubscriptionAvailable = &v
		return 1, true, nil
	case PropSubscriptionIdentifiersAvail:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.SubscriptionIdentifiersAvailable = &v
		return 1, true, nil
	case PropSharedSubscriptionAvailable:
		v, ok, err := DecodeByte(src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.SharedSubscriptionAvailable = &v
		return 1, true, nil

	case PropServerKeepAlive:
		v, ok, err := DecodeU16(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.ServerKeepAlive = &v
		return 2, true, nil
	case PropReceiveMaximum:
		v, ok, err := DecodeU16(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		if v == 0 {
			return 0, false, ErrMalformedReceiveMaximum
		}
		p.ReceiveMaximum = &v
		return 2, true, nil
	case PropTopicAliasMaximum:
		v, ok, err := DecodeU16(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.TopicAliasMaximum = &v
		return 2, true, nil
	case PropTopicAlias:
		v, ok, err := DecodeU16(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.TopicAlias = &v
		return 2, true, nil

	case PropMessageExpiryInterval:
		v, ok, err := DecodeU32(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.MessageExpiryInterval = &v
		return 4, true, nil
	case PropSessionExpiryInterval:
		v, ok, err := DecodeU32(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.SessionExpiryInterval = &v
		return 4, true, nil
	case PropWillDelayInterval:
		v, ok, err := DecodeU32(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.WillDelayInterval = &v
		return 4, true, nil
	case PropMaximumPacketSize:
		v, ok, err := DecodeU32(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		if v == 0 {
			return 0, false, ErrMalformedPacket
		}
		p.MaximumPacketSize = &v
		return 4, true, nil

	case PropSubscriptionIdentifier:
		v, ok, err := DecodeVariableInteger(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		n, _ := VariableIntegerSize(v)
		p.SubscriptionIdentifiers = append(p.SubscriptionIdentifiers, v)
		return uint32(n), true, nil

	case PropContentType:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.ContentType = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropResponseTopic:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.ResponseTopic = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropAssignedClientIdentifier:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.AssignedClientIdentifier = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropAuthenticationMethod:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.AuthenticationMethod = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropResponseInformation:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.ResponseInformation = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropServerReference:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.ServerReference = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropReasonString:
		v, ok, err := DecodeBlobString(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.ReasonString = &v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil

	case PropCorrelationData:
		v, ok, err := DecodeBlobBytes(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.CorrelationData = v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil
	case PropAuthenticationData:
		v, ok, err := DecodeBlobBytes(rc, src)
		if !ok || err != nil {
			return 0, ok, err
		}
		p.AuthenticationData = v
		sz, _ := BlobSize(len(v))
		return uint32(sz), true, nil

	case PropUserProperty:
		name, ok, err := DecodeBlobString(rc, src)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		value, ok, err := DecodeBlobString(rc, src)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		p.UserProperties = append(p.UserProperties, UserProperty{Name: name, Value: value})
		nameSz, _ := BlobSize(len(name))
		valSz, _ := BlobSize(len(value))
		return uint32(nameSz + valSz), true, nil

	default:
		return 0, false, fmt.Errorf("%w: %d", ErrBadPropertyIdentifier, id)
	}
}

// Size computes the byte length of the property block body (excluding its
// own length prefix), used by writers to size the leading variable
// integer before emitting.
func (p *Properties) Size() int {
	n := 0
	if p.PayloadFormatIndicator != nil {
		n += 2
	}
	if p.MessageExpiryInterval != nil {
		n += 5
	}
	if p.ContentType != nil {
		n += 1 + 2 + len(*p.ContentType)
	}
	if p.ResponseTopic != nil {
		n += 1 + 2 + len(*p.ResponseTopic)
	}
	if p.CorrelationData != nil {
		n += 1 + 2 + len(p.CorrelationData)
	}
	for _, id := range p.SubscriptionIdentifiers {
		sz, _ := VariableIntegerSize(id)
		n += 1 + sz
	}
	if p.SessionExpiryInterval != nil {
		n += 5
	}
	if p.AssignedClientIdentifier != nil {
		n += 1 + 2 + len(*p.AssignedClientIdentifier)
	}
	if p.ServerKeepAlive != nil {
		n += 3
	}
	if p.AuthenticationMethod != nil {
		n += 1 + 2 + len(*p.AuthenticationMethod)
	}
	if p.AuthenticationData != nil {
		n += 1 + 2 + len(p.AuthenticationData)
	}
	if p.RequestProblemInformation != nil {
		n += 2
	}
	if p.WillDelayInterval != nil {
		n += 5
	}
	if p.RequestResponseInformation != nil {
		n += 2
	}
	if p.ResponseInformation != nil {
		n += 1 + 2 + len(*p.ResponseInformation)
	}
	if p.ServerReference != nil {
		n += 1 + 2 + len(*p.ServerReference)
	}
	if p.ReasonString != nil {
		n += 1 + 2 + len(*p.ReasonString)
	}
	if p.ReceiveMaximum != nil {
		n += 3
	}
	if p.TopicAliasMaximum != nil {
		n += 3
	}
	if p.TopicAlias != nil {
		n += 3
	}
	if p.MaximumQoS != nil {
		n += 2
	}
	if p.RetainAvailable != nil {
		n += 2
	}
	for _, up := range p.UserProperties {
		n += 1 + 2 + len(up.Name) + 2 + len(up.Value)
	}
	if p.MaximumPacketSize != nil {
		n += 5
	}
	if p.WildcardSubscriptionAvailable != nil {
		n += 2
	}
	if p.SubscriptionIdentifiersAvailable != nil {
		n += 2
	}
	if p.SharedSubscriptionAvailable != nil {
		n += 2
	}
	return n
}

// Encode appends the property block (length prefix + body) to dst.
func (p *Properties) Encode(dst []byte) ([]byte, error) {
	size := p.Size()
	lp, err := EncodeVariableInteger(uint32(size))
	if err != nil {
		return nil, err
	}
	dst = append(dst, lp...)
	if p.PayloadFormatIndicator != nil {
		dst = append(dst, byte(PropPayloadFormatIndicator), *p.PayloadFormatIndicator)
	}
	if p.MessageExpiryInterval != nil {
		dst = append(dst, byte(PropMessageExpiryInterval))
		dst = append(dst, EncodeU32(*p.MessageExpiryInterval)...)
	}
	if p.ContentType != nil {
		dst = append(dst, byte(PropContentType))
		dst = append(dst, EncodeBlob(*p.ContentType)...)
	}
	if p.ResponseTopic != nil {
		dst = append(dst, byte(PropResponseTopic))
		dst = append(dst, EncodeBlob(*p.ResponseTopic)...)
	}
	if p.CorrelationData != nil {
		dst = append(dst, byte(PropCorrelationData))
		dst = append(dst, EncodeBlob(p.CorrelationData)...)
	}
	for _, id := range p.SubscriptionIdentifiers {
		dst = append(dst, byte(PropSubscriptionIdentifier))
		enc, err := EncodeVariableInteger(id)
		if err != nil {
			return nil, err
		}
		dst = append(dst, enc...)
	}
	if p.SessionExpiryInterval != nil {
		dst = append(dst, byte(PropSessionExpiryInterval))
		dst = append(dst, EncodeU32(*p.SessionExpiryInterval)...)
	}
	if p.AssignedClientIdentifier != nil {
		dst = append(dst, byte(PropAssignedClientIdentifier))
		dst = append(dst, EncodeBlob(*p.AssignedClientIdentifier)...)
	}
	if p.ServerKeepAlive != nil {
		dst = append(dst, byte(PropServerKeepAlive))
		dst = append(dst, EncodeU16(*p.ServerKeepAlive)...)
	}
	if p.AuthenticationMethod != nil {
		dst = append(dst, byte(PropAuthenticationMethod))
		dst = append(dst, EncodeBlob(*p.AuthenticationMethod)...)
	}
	if p.AuthenticationData != nil {
		dst = append(dst, byte(PropAuthenticationData))
		dst = append(dst, EncodeBlob(p.AuthenticationData)...)
	}
	if p.RequestProblemInformation != nil {
		dst = append(dst, byte(PropRequestProblemInformation), *p.RequestProblemInformation)
	}
	if p.WillDelayInterval != nil {
		dst = append(dst, byte(PropWillDelayInterval))
		dst = append(dst, EncodeU32(*p.WillDelayInterval)...)
	}
	if p.RequestResponseInformation != nil {
		dst = append(dst, byte(PropRequestResponseInformation), *p.RequestResponseInformation)
	}
	if p.ResponseInformation != nil {
		dst = append(dst, byte(PropResponseInformation))
		dst = append(dst, EncodeBlob(*p.ResponseInformation)...)
	}
	if p.ServerReference != nil {
		dst = append(dst, byte(PropServerReference))
		dst = append(dst, EncodeBlob(*p.ServerReference)...)
	}
	if p.ReasonString != nil {
		dst = append(dst, byte(PropReasonString))
		dst = append(dst, EncodeBlob(*p.ReasonString)...)
	}
	if p.ReceiveMaximum != nil {
		dst = append(dst, byte(PropReceiveMaximum))
		dst = append(dst, EncodeU16(*p.ReceiveMaximum)...)
	}
	if p.TopicAliasMaximum != nil {
		dst = append(dst, byte(PropTopicAliasMaximum))
		dst = append(dst, EncodeU16(*p.TopicAliasMaximum)...)
	}
	if p.TopicAlias != nil {
		dst = append(dst, byte(PropTopicAlias))
		dst = append(dst, EncodeU16(*p.TopicAlias)...)
	}
	if p.MaximumQoS != nil {
		dst = append(dst, byte(PropMaximumQoS), *p.MaximumQoS)
	}
	if p.RetainAvailable != nil {
		dst = append(dst, byte(PropRetainAvailable), *p.RetainAvailable)
	}
	for _, up := range p.UserProperties {
		dst = append(dst, byte(PropUserProperty))
		dst = append(dst, EncodeBlob(up.Name)...)
		dst = append(dst, EncodeBlob(up.Value)...)
	}
	if p.MaximumPacketSize != nil {
		dst = append(dst, byte(PropMaximumPacketSize))
		dst = append(dst, EncodeU32(*p.MaximumPacketSize)...)
	}
	if p.WildcardSubscriptionAvailable != nil {
		dst = append(dst, byte(PropWildcardSubscriptionAvailable), *p.WildcardSubscriptionAvailable)
	}
	if p.SubscriptionIdentifiersAvailable != nil {
		dst = append(dst, byte(PropSubscriptionIdentifiersAvail), *p.SubscriptionIdentifiersAvailable)
	}
	if p.SharedSubscriptionAvailable != nil {
		dst = append(dst, byte(PropSharedSubscriptionAvailable), *p.SharedSubscriptionAvailable)
	}
	return dst, nil
}
