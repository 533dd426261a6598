package disk

// NewDiskManagerTest returns a disk manager suitable for unit tests. The
// file lives on memory only, so there is nothing to clean up afterwards.
func NewDiskManagerTest() DiskManager {
	return NewVirtualDiskManagerImpl("test.db")
}
