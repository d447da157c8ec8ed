package schema

import "reflect"

const maxSelectNum = 5

// receiveN 从 chosenList 指定的流中接收一个块，流数量不超过 maxSelectNum 时使用静态 select。
func receiveN[T any](chosenList []int, ss []*stream[T]) (int, streamItem[T], bool) {
	switch len(chosenList) {
	case 1:
		item, ok := <-ss[chosenList[0]].items
		return chosenList[0], item, ok
	case 2:
		select {
		case item, ok := <-ss[chosenList[0]].items:
			return chosenList[0], item, ok
		case item, ok := <-ss[chosenList[1]].items:
			return chosenList[1], item, ok
		}
	case 3:
		select {
		case item, ok := <-ss[chosenList[0]].items:
			return chosenList[0], item, ok
		case item, ok := <-ss[chosenList[1]].items:
			return chosenList[1], item, ok
		case item, ok := <-ss[chosenList[2]].items:
			return chosenList[2], item, ok
		}
	case 4:
		select {
		case item, ok := <-ss[chosenList[0]].items:
			return chosenList[0], item, ok
		case item, ok := <-ss[chosenList[1]].items:
			return chosenList[1], item, ok
		case item, ok := <-ss[chosenList[2]].items:
			return chosenList[2], item, ok
		case item, ok := <-ss[chosenList[3]].items:
			return chosenList[3], item, ok
		}
	default:
		select {
		case item, ok := <-ss[chosenList[0]].items:
			return chosenList[0], item, ok
		case item, ok := <-ss[chosenList[1]].items:
			return chosenList[1], item, ok
		case item, ok := <-ss[chosenList[2]].items:
			return chosenList[2], item, ok
		case item, ok := <-ss[chosenList[3]].items:
			return chosenList[3], item, ok
		case item, ok := <-ss[chosenList[4]].items:
			return chosenList[4], item, ok
		}
	}
}

// receiveAny 流数量较多时退化为 reflect.Select。
func receiveAny[T any](chosenList []int, ss []*stream[T]) (int, streamItem[T], bool) {
	cases := make([]reflect.SelectCase, len(chosenList))
	for i, idx := range chosenList {
		cases[i] = reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(ss[idx].items),
		}
	}

	chosen, recv, ok := reflect.Select(cases)
	if !ok {
		return chosenList[chosen], streamItem[T]{}, false
	}
	return chosenList[chosen], recv.Interface().(streamItem[T]), true
}
