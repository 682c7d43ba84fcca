package models

import "net/http"

const (
	// PropLocation 页面地址属性 (sitemap中的<loc>)
	PropLocation = "loc"

	// PropLastModified 最后修改时间属性 (sitemap中的<lastmod>)
	PropLastModified = "lastmod"
)

// Property 页面记录中的一个属性
type Property struct {
	Name  string
	Value string
}

// PageRecord 单个已访问页面的属性集合
// 属性按插入顺序保存,重复设置同名属性时原位覆盖
type PageRecord struct {
	props []Property
}

// NewPageRecord 按给定顺序创建页面记录
func NewPageRecord(props ...Property) PageRecord {
	var r PageRecord
	for _, p := range props {
		r.Set(p.Name, p.Value)
	}
	return r
}

// Set 设置属性值
func (r *PageRecord) Set(name, value string) {
	for i := range r.props {
		if r.props[i].Name == name {
			r.props[i].Value = value
			return
		}
	}
	r.props = append(r.props, Property{Name: name, Value: value})
}

// Get 读取属性值
func (r PageRecord) Get(name string) (string, bool) {
	for _, p := range r.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Location 返回<loc>属性
func (r PageRecord) Location() string {
	loc, _ := r.Get(PropLocation)
	return loc
}

// Properties 返回属性副本(按插入顺序)
func (r PageRecord) Properties() []Property {
	out := make([]Property, len(r.props))
	copy(out, r.props)
	return out
}

// Len 属性数量
func (r PageRecord) Len() int {
	return len(r.props)
}

// Clone 深拷贝,避免调用方修改已登记的记录
func (r PageRecord) Clone() PageRecord {
	return PageRecord{props: r.Properties()}
}

// Entry 结果存储中的一项: URL及其页面记录
type Entry struct {
	URL    string
	Record PageRecord
}

// Response HTTP抓取结果
type Response struct {
	// URL 跟随重定向后的最终地址
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}
