package sqldb

import (
	"context"
	"fmt"
	"log"
)

func QueryItems[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](
	ctx context.Context,
	h Handle,
	rawStmt string,
	args ...any, // variadic
) ([]*M, error) { // Returns a Slice of Model-Pointers
	rows, err := h.QueryRows(ctx, rawStmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[WARN][SQLDB] rows.Close() failed: %v", err)
		}
	}()
	return RowsToNewItems[M, MP](rows)
}

func RowsToNewItems[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](rows Rows) ([]*M, error) {
	var itemPtrs []*M
	for rows.Next() {
		var item M     // struct with zero values for the fields
		p := MP(&item) // p is *M, which satisfies targetFieldsProvider interface
		if err := rows.Scan(p.TargetFields()...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		itemPtrs = append(itemPtrs, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during iterating rows: %w", err)
	}
	return itemPtrs, nil
}

func QueryItem[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](
	ctx context.Context,
	h Handle,
	rawStmt string,
	args ...any, // variadic
) (*M, error) { // Returns the Pointer to the Newly Created Item
	var item M
	p := MP(&item)
	if err := h.QueryRow(ctx, rawStmt, args...).Scan(p.TargetFields()...); err != nil {
		return nil, err
	}
	return &item, nil
}
