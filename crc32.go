package archiver

// crcPolynomial is the reflected IEEE polynomial used by zip.
const crcPolynomial = 0xedb88320

// crcTable is built once and only read afterwards, so it is safe
// for any number of concurrent callers.
var crcTable = makeCRCTable()

func makeCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		c := uint32(i)
		for range 8 {
			if c&1 == 1 {
				c = (c >> 1) ^ crcPolynomial
			} else {
				c >>= 1
			}
		}
		table[i] = c
	}
	return table
}

// Checksum returns the CRC-32 of data as stored in zip headers.
func Checksum(data []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, b := range data {
		crc = crcTable[byte(crc)^b] ^ (crc >> 8)
	}
	return crc ^ 0xffffffff
}
