package storage

import (
	"fmt"

	"gonum.org/v1/hdf5"

	"sgdet-annotate/domain/export"
)

// writeColumnarFile writes the columnar output as an HDF5 file: one
// int32 dataset per array plus scalar datasets for the image metadata.
func writeColumnarFile(path string, col *export.Columnar) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer f.Close()

	n := uint(col.NumBoxes)
	m := uint(col.NumRelationships)

	datasets := []struct {
		name string
		dims []uint
		data []int32
	}{
		{"attribute", []uint{n, uint(export.AttributeSlots)}, col.Attribute},
		{"boxes_1024", []uint{n, 4}, col.Boxes1024},
		{"boxes_512", []uint{n, 4}, col.Boxes512},
		{"labels", []uint{n}, col.Labels},
		{"relationships", []uint{m, 2}, col.Relationships},
		{"predicates", []uint{m}, col.Predicates},
	}
	for _, ds := range datasets {
		if err := writeInt32Dataset(f, ds.name, ds.dims, ds.data); err != nil {
			return fmt.Errorf("dataset %s: %w", ds.name, err)
		}
	}

	if err := writeStringScalar(f, "image-name", col.ImageName); err != nil {
		return fmt.Errorf("dataset image-name: %w", err)
	}
	if err := writeInt32Scalar(f, "width", col.Width); err != nil {
		return fmt.Errorf("dataset width: %w", err)
	}
	if err := writeInt32Scalar(f, "height", col.Height); err != nil {
		return fmt.Errorf("dataset height: %w", err)
	}
	return nil
}

func writeInt32Dataset(f *hdf5.File, name string, dims []uint, data []int32) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, hdf5.T_NATIVE_INT32, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	if len(data) == 0 {
		return nil
	}
	return dset.Write(&data)
}

func writeInt32Scalar(f *hdf5.File, name string, value int32) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, hdf5.T_NATIVE_INT32, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	return dset.Write(&value)
}

func writeStringScalar(f *hdf5.File, name string, value string) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, hdf5.T_GO_STRING, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	return dset.Write(&value)
}
