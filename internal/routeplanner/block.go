package routeplanner

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParseBlock accepts a CIDR ("2001:db8::/48", "192.0.2.0/24") or a single
// address, which becomes a one-address block.
func ParseBlock(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Prefix{}, fmt.Errorf("empty ip block")
	}

	if !strings.Contains(raw, "/") {
		addr, err := ParseAddress(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}

	prefix, err := netip.ParsePrefix(raw)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid ip block %q: %w", raw, err)
	}
	if prefix.Addr().Is4In6() {
		bits := prefix.Bits() - 96
		if bits < 0 {
			return netip.Prefix{}, fmt.Errorf("invalid ip block %q: mapped prefix shorter than /96", raw)
		}
		prefix = netip.PrefixFrom(prefix.Addr().Unmap(), bits)
	}
	return prefix.Masked(), nil
}

func ParseAddress(raw string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid ip address %q: %w", raw, err)
	}
	return addr.Unmap().WithZone(""), nil
}

// randomAddress fills the host bits of prefix from random.
func randomAddress(prefix netip.Prefix, random func([]byte)) netip.Addr {
	base := prefix.Masked().Addr().AsSlice()
	noise := make([]byte, len(base))
	random(noise)

	bits := prefix.Bits()
	for i := range base {
		start := i * 8
		switch {
		case start+8 <= bits:
		case start >= bits:
			base[i] = noise[i]
		default:
			mask := byte(0xff << (8 - (bits - start)))
			base[i] = base[i]&mask | noise[i]&^mask
		}
	}

	addr, _ := netip.AddrFromSlice(base)
	return addr
}

func blockSize(prefix netip.Prefix) string {
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits >= 63 {
		return fmt.Sprintf("2^%d", hostBits)
	}
	return fmt.Sprintf("%d", uint64(1)<<hostBits)
}
