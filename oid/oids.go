package oid

// Tables walked per device.
const (
	// IP-MIB ipAdEntAddr. The row key is taken from the trailing component, the value is the address.
	IPv4AddressTable = "1.3.6.1.2.1.4.20.1.1"
	// IPV6-MIB ipv6AddrPfxLength, indexed by ipv6IfIndex followed by the 16 address octets.
	IPv6AddressTable = "1.3.6.1.2.1.55.1.8.1.2"
	// IF-MIB ifOperStatus, indexed by ifIndex. 1 is up.
	InterfaceStatusTable = "1.3.6.1.2.1.2.2.1.8"
	// IF-MIB ifName, indexed by ifIndex.
	InterfaceNameTable = "1.3.6.1.2.1.31.1.1.1.1"
)
