package model

// OrderGraph 一个完整的订单单元：地址 + 订单 + 订单项，引用关系在此内部闭合。
type OrderGraph struct {
	Addr  OrderAddr
	Order Order
	Items []OrderItem
}

// Batch 一次落库的数据，按 地址 → 订单 → 订单项 的顺序写入。
type Batch struct {
	Seq    int
	Addrs  []OrderAddr
	Orders []Order
	Items  []OrderItem
}

// NewBatch 按订单数预分配，订单项按每单最多 3 个估算。
func NewBatch(seq, size int) *Batch {
	return &Batch{
		Seq:    seq,
		Addrs:  make([]OrderAddr, 0, size),
		Orders: make([]Order, 0, size),
		Items:  make([]OrderItem, 0, size*3),
	}
}

func (b *Batch) Add(g OrderGraph) {
	b.Addrs = append(b.Addrs, g.Addr)
	b.Orders = append(b.Orders, g.Order)
	b.Items = append(b.Items, g.Items...)
}

// Rows 三张表的总行数
func (b *Batch) Rows() int {
	return len(b.Addrs) + len(b.Orders) + len(b.Items)
}
