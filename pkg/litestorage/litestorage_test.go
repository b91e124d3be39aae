package litestorage

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"

	"github.com/arnac-io/ordercheck/pkg/core"
)

func TestConvertStack(t *testing.T) {
	cell := boc.NewCell()
	require.NoError(t, cell.WriteUint(7, 8))

	stack := tlb.VmStack{
		{SumType: "VmStkTinyInt", VmStkTinyInt: -1},
		{SumType: "VmStkNull"},
		{SumType: "VmStkCell", VmStkCell: tlb.Ref[boc.Cell]{Value: *cell}},
	}
	values, err := convertStack(stack)
	require.NoError(t, err)
	require.Len(t, values, 3)
	require.Equal(t, core.StackNum, values[0].Type)
	require.Equal(t, int64(-1), values[0].Num.Int64())
	require.Equal(t, core.StackNull, values[1].Type)
	require.Equal(t, core.StackCell, values[2].Type)
	v, err := values[2].Cell.ReadUint(8)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	_, err = convertStack(tlb.VmStack{{SumType: "VmStkTuple"}})
	require.Error(t, err)
}
