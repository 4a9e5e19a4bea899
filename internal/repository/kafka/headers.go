package kafka

import "github.com/segmentio/kafka-go"

// headerCarrier adapts kafka headers to the OTel TextMapCarrier interface in
// both directions.
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(k string) string {
	for _, h := range *c.headers {
		if h.Key == k {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(k, v string) {
	for i, h := range *c.headers {
		if h.Key == k {
			(*c.headers)[i].Value = []byte(v)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: k, Value: []byte(v)})
}

func (c headerCarrier) Keys() []string {
	ks := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		ks = append(ks, h.Key)
	}
	return ks
}
