package ntfsvolume

import (
	"reflect"

	"github.com/diskfs/go-diskfs"
	"github.com/dsoprea/go-logging"
)

// PartitionOffset returns the byte offset of the one-based `partition` in
// the partition table (MBR or GPT) of the disk or image at `filepath`.
func PartitionOffset(filepath string, partition int) (offset int64, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	d, err := diskfs.Open(filepath, diskfs.WithOpenMode(diskfs.ReadOnly))
	log.PanicIf(err)

	defer d.Close()

	table, err := d.GetPartitionTable()
	log.PanicIf(err)

	partitions := table.GetPartitions()

	if partition < 1 || partition > len(partitions) {
		log.Panicf("partition (%d) out of range; the table has (%d)", partition, len(partitions))
	}

	offset = partitions[partition-1].GetStart()

	volumeLogger.Debugf(nil, "Partition (%d) of [%s] starts at (%d).", partition, filepath, offset)

	return offset, nil
}
