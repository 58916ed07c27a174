package crawler

import "github.com/darkkaiser/price-tracker/internal/model"

// Result 한 번의 크롤링에서 수집한 상품입니다. 키는 상품의 상대 URL(href)이며 발견 순서를 유지합니다.
type Result struct {
	products map[string]*model.ParsedProduct
	order    []string
}

func newResult() *Result {
	return &Result{products: make(map[string]*model.ParsedProduct)}
}

// NewResult 이미 수집한 상품으로 Result를 만듭니다. 키는 상품 URL이며 중복된 URL은 처음 것만 남습니다.
func NewResult(products ...model.ParsedProduct) *Result {
	r := newResult()
	for i := range products {
		p := products[i]
		if r.has(p.Price.ProductURL) {
			continue
		}
		r.add(p.Price.ProductURL, &p)
	}
	return r
}

func (r *Result) has(relativeURL string) bool {
	_, ok := r.products[relativeURL]
	return ok
}

func (r *Result) add(relativeURL string, p *model.ParsedProduct) {
	r.products[relativeURL] = p
	r.order = append(r.order, relativeURL)
}

// Len 수집한 상품 수입니다.
func (r *Result) Len() int {
	return len(r.order)
}

// Get 상대 URL로 상품을 찾습니다.
func (r *Result) Get(relativeURL string) (*model.ParsedProduct, bool) {
	p, ok := r.products[relativeURL]
	return p, ok
}

// Products 발견 순서대로 상품 목록을 반환합니다.
func (r *Result) Products() []model.ParsedProduct {
	list := make([]model.ParsedProduct, 0, len(r.order))
	for _, key := range r.order {
		list = append(list, *r.products[key])
	}
	return list
}
