package domain

import "fmt"

// 存储核心领域错误

// ErrConstraintViolation 非空约束违反错误
type ErrConstraintViolation struct {
	Column  string
	Message string
}

func (e *ErrConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation on column %s: %s", e.Column, e.Message)
}

// ErrUniqueViolation 唯一约束违反错误
type ErrUniqueViolation struct {
	IndexName string
	Key       string
}

func (e *ErrUniqueViolation) Error() string {
	return fmt.Sprintf("unique violation on index %s: key %s already visible", e.IndexName, e.Key)
}

// ErrRowGroupNotFound row group不存在错误
type ErrRowGroupNotFound struct {
	RowGroupID uint64
}

func (e *ErrRowGroupNotFound) Error() string {
	return fmt.Sprintf("row group %d not found", e.RowGroupID)
}

// ErrColumnNotFound 列不存在错误
type ErrColumnNotFound struct {
	ColumnName string
}

func (e *ErrColumnNotFound) Error() string {
	return fmt.Sprintf("column %s not found", e.ColumnName)
}

// ErrIndexNotFound 索引不存在错误
type ErrIndexNotFound struct {
	OID  uint64
	Name string
}

func (e *ErrIndexNotFound) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("index %s not found", e.Name)
	}
	return fmt.Sprintf("index with oid %d not found", e.OID)
}

// ErrForeignKeyNotFound 外键不存在错误
type ErrForeignKeyNotFound struct {
	Name string
}

func (e *ErrForeignKeyNotFound) Error() string {
	return fmt.Sprintf("foreign key %s not found", e.Name)
}

// ErrSchemaMismatch 元组与表结构不匹配错误
type ErrSchemaMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("tuple has %d columns, schema expects %d", e.Actual, e.Expected)
}

// 辅助函数

// NewErrConstraintViolation 创建非空约束违反错误
func NewErrConstraintViolation(column, message string) *ErrConstraintViolation {
	return &ErrConstraintViolation{Column: column, Message: message}
}

// NewErrUniqueViolation 创建唯一约束违反错误
func NewErrUniqueViolation(indexName, key string) *ErrUniqueViolation {
	return &ErrUniqueViolation{IndexName: indexName, Key: key}
}

// NewErrRowGroupNotFound 创建row group不存在错误
func NewErrRowGroupNotFound(id uint64) *ErrRowGroupNotFound {
	return &ErrRowGroupNotFound{RowGroupID: id}
}

// NewErrColumnNotFound 创建列不存在错误
func NewErrColumnNotFound(name string) *ErrColumnNotFound {
	return &ErrColumnNotFound{ColumnName: name}
}

// NewErrIndexNotFound 创建索引不存在错误
func NewErrIndexNotFound(oid uint64, name string) *ErrIndexNotFound {
	return &ErrIndexNotFound{OID: oid, Name: name}
}

// NewErrForeignKeyNotFound 创建外键不存在错误
func NewErrForeignKeyNotFound(name string) *ErrForeignKeyNotFound {
	return &ErrForeignKeyNotFound{Name: name}
}

// NewErrSchemaMismatch 创建结构不匹配错误
func NewErrSchemaMismatch(expected, actual int) *ErrSchemaMismatch {
	return &ErrSchemaMismatch{Expected: expected, Actual: actual}
}
